package detector

import "image"

// DetectTextRegions finds ink blobs likely to be glyphs using a simplified
// maximally-stable-extremal-region sweep: dark components are extracted at a
// ladder of gray thresholds and a blob counts as stable once essentially the
// same rectangle persists across MSERStability consecutive levels. Stable
// blobs become boxes with label "text_region" and a fixed 0.8 confidence,
// then pass the shared validity filter.
func (d *Detector) DetectTextRegions(img image.Image) []BoundingBox {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	gray := grayPix(img)

	delta := d.cfg.MSERDelta
	if delta < 1 {
		delta = 1
	}

	// Component rectangles per threshold level. Printed codes are dark on a
	// light plate, so components are thresholded as "pixel <= level".
	var levels [][]BoundingBox
	for level := delta; level < 256; level += delta {
		mask := make([]bool, w*h)
		for i, v := range gray {
			if int(v) <= level {
				mask[i] = true
			}
		}
		comps := connectedComponentsMask(mask, w, h)
		boxes := make([]BoundingBox, 0, len(comps))
		for _, st := range comps {
			boxes = append(boxes, st.boundingBox())
		}
		levels = append(levels, boxes)
	}

	// A blob is stable when a near-identical rectangle exists at the next
	// MSERStability-1 levels.
	need := d.cfg.MSERStability
	if need < 1 {
		need = 1
	}
	var stable []BoundingBox
	for li, boxes := range levels {
		for _, box := range boxes {
			run := 1
			for lj := li + 1; lj < len(levels) && run < need; lj++ {
				if !containsSimilar(levels[lj], box, d.cfg.MSERMaxIoU) {
					break
				}
				run++
			}
			if run >= need {
				box.Label = "text_region"
				box.Confidence = 0.8
				if d.isValidROI(box, w, h) && !containsSimilar(stable, box, d.cfg.MSERMaxIoU) {
					stable = append(stable, box)
				}
			}
		}
	}
	return stable
}

func grayPix(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) && g.Stride == w {
		return g.Pix[:w*h]
	}
	out := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// Integer luma approximation, same weights as image/color.
			out[y*w+x] = uint8((299*(r>>8) + 587*(g>>8) + 114*(bl>>8)) / 1000)
		}
	}
	return out
}

func containsSimilar(boxes []BoundingBox, box BoundingBox, iouThresh float64) bool {
	for _, other := range boxes {
		if boxIoU(box, other) >= iouThresh {
			return true
		}
	}
	return false
}

// boxIoU computes intersection-over-union of two boxes.
func boxIoU(a, b BoundingBox) float64 {
	ix0 := maxIntD(a.X, b.X)
	iy0 := maxIntD(a.Y, b.Y)
	ix1 := minIntD(a.X+a.Width, b.X+b.Width)
	iy1 := minIntD(a.Y+a.Height, b.Y+b.Height)
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := float64((ix1 - ix0) * (iy1 - iy0))
	union := float64(a.Area()+b.Area()) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func minIntD(a, b int) int {
	if a < b {
		return a
	}
	return b
}
