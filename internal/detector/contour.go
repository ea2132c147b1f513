package detector

import "image"

// DetectByContours is the default strategy: binarize with the light
// detection preprocess, extract external contours as connected components,
// keep the bounding rectangles that pass the validity filter, largest first.
func (d *Detector) DetectByContours(img image.Image) []BoundingBox {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	binary := d.prep.PrepareForDetection(img)
	comps := connectedComponents(binary)

	boxes := make([]BoundingBox, 0, len(comps))
	for _, st := range comps {
		box := st.boundingBox()
		box.Label = "contour"
		if d.isValidROI(box, w, h) {
			boxes = append(boxes, box)
		}
	}
	sortByAreaDesc(boxes)
	return boxes
}

// DetectLargest returns the single largest contour-based region, or false
// when nothing qualifies.
func (d *Detector) DetectLargest(img image.Image) (BoundingBox, bool) {
	boxes := d.DetectByContours(img)
	if len(boxes) == 0 {
		return BoundingBox{}, false
	}
	return boxes[0], true
}
