package detector

import (
	"image"

	"github.com/MeKo-Tech/platecode/internal/utils"
	"github.com/disintegration/imaging"
)

// BoundingBox is a candidate region in source-image pixel coordinates.
// Boxes are created by the detector and read-only afterwards.
type BoundingBox struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int { return b.Width * b.Height }

// AspectRatio returns width/height, or 0 for a degenerate box.
func (b BoundingBox) AspectRatio() float64 {
	if b.Height <= 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// WholeImage returns a box covering the entire image, used as the fallback
// when no detection strategy produces a region.
func WholeImage(img image.Image) BoundingBox {
	return BoundingBox{
		X:          0,
		Y:          0,
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Confidence: 1.0,
		Label:      "whole_image",
	}
}

// CropROI clamps the box to the image bounds and returns the cropped
// sub-image. A box computed against a different image size (for instance a
// rotated copy) therefore never causes out-of-range access; a box entirely
// outside the image yields an empty crop.
func CropROI(img image.Image, box BoundingBox) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	x := utils.ClampInt(box.X, 0, maxIntD(w-1, 0))
	y := utils.ClampInt(box.Y, 0, maxIntD(h-1, 0))
	cw := utils.ClampInt(box.Width, 0, w-x)
	ch := utils.ClampInt(box.Height, 0, h-y)

	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+cw, b.Min.Y+y+ch)
	return imaging.Crop(img, rect)
}

func maxIntD(a, b int) int {
	if a > b {
		return a
	}
	return b
}
