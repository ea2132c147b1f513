package detector

import (
	"image"
	"math"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// DetectByTemplate slides a caller-supplied template over the image and
// reports every location whose zero-mean normalized cross-correlation
// reaches TemplateThreshold. Boxes are template-sized with the correlation
// score as confidence.
func (d *Detector) DetectByTemplate(img, template image.Image) []BoundingBox {
	if img == nil || template == nil {
		return nil
	}
	gray := utils.ToGray(img)
	tmpl := utils.ToGray(template)

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	if tw == 0 || th == 0 || tw > w || th > h {
		return nil
	}

	// Template statistics are fixed across all placements.
	tMean := planeMean(tmpl.Pix, tw*th)
	tDev := make([]float64, tw*th)
	var tNorm float64
	for i, v := range tmpl.Pix[:tw*th] {
		d := float64(v) - tMean
		tDev[i] = d
		tNorm += d * d
	}
	if tNorm == 0 {
		return nil
	}

	ii := utils.IntegralImage(gray)
	ii2 := utils.IntegralSquares(gray)
	n := float64(tw * th)

	var boxes []BoundingBox
	for y := 0; y+th <= h; y++ {
		for x := 0; x+tw <= w; x++ {
			sum := utils.WindowSum(ii, x, y, x+tw, y+th)
			sumSq := utils.WindowSum(ii2, x, y, x+tw, y+th)
			mean := sum / n
			variance := sumSq - sum*sum/n
			if variance <= 0 {
				continue
			}

			var cross float64
			for ty := range th {
				row := (y+ty)*w + x
				for tx := range tw {
					cross += (float64(gray.Pix[row+tx]) - mean) * tDev[ty*tw+tx]
				}
			}

			score := cross / math.Sqrt(variance*tNorm)
			if score >= d.cfg.TemplateThreshold {
				boxes = append(boxes, BoundingBox{
					X:          x,
					Y:          y,
					Width:      tw,
					Height:     th,
					Confidence: score,
					Label:      "template_match",
				})
			}
		}
	}
	return boxes
}

func planeMean(pix []uint8, n int) float64 {
	var sum float64
	for _, v := range pix[:n] {
		sum += float64(v)
	}
	return sum / float64(n)
}
