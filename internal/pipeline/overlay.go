package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// Annotation colors by confidence band.
var (
	colorHigh   = color.NRGBA{R: 0, G: 200, B: 0, A: 255}   // >= 0.9
	colorMedium = color.NRGBA{R: 230, G: 200, B: 0, A: 255} // [0.7, 0.9)
	colorLow    = color.NRGBA{R: 220, G: 40, B: 40, A: 255} // < 0.7
)

// RenderOverlay draws each result's box and "CODE (confidence)" label onto a
// copy of the original image. The input is never modified.
func RenderOverlay(img image.Image, results []DetectionResult) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	for _, r := range results {
		col := bandColor(r.Confidence)
		utils.DrawRect(out, r.Box.Rect(), col, 2)
		label := fmt.Sprintf("%s (%.2f)", r.Code, r.Confidence)
		labelY := r.Box.Y - 4
		if labelY < 13 {
			labelY = r.Box.Y + r.Box.Height + 13
		}
		utils.DrawLabel(out, label, r.Box.X, labelY, col)
	}
	return out
}

func bandColor(confidence float64) color.Color {
	switch {
	case confidence >= 0.9:
		return colorHigh
	case confidence >= 0.7:
		return colorMedium
	default:
		return colorLow
	}
}
