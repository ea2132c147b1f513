package detector

import (
	"image/color"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/MeKo-Tech/platecode/internal/testutil"
)

func TestCropROIClampProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	img := testutil.SolidImage(120, 90, color.White)

	boxGen := gopter.CombineGens(
		gen.IntRange(-500, 500),
		gen.IntRange(-500, 500),
		gen.IntRange(-500, 500),
		gen.IntRange(-500, 500),
	).Map(func(vs []interface{}) BoundingBox {
		return BoundingBox{
			X:      vs[0].(int),
			Y:      vs[1].(int),
			Width:  vs[2].(int),
			Height: vs[3].(int),
		}
	})

	properties.Property("crop stays within image bounds", prop.ForAll(
		func(box BoundingBox) bool {
			crop := CropROI(img, box)
			b := crop.Bounds()
			return b.Dx() >= 0 && b.Dx() <= 120 && b.Dy() >= 0 && b.Dy() <= 90
		},
		boxGen,
	))

	properties.Property("in-bounds box crops to its own size", prop.ForAll(
		func(x, y, w, h int) bool {
			box := BoundingBox{X: x, Y: y, Width: w, Height: h}
			if x+w > 120 || y+h > 90 {
				return true
			}
			crop := CropROI(img, box)
			return crop.Bounds().Dx() == w && crop.Bounds().Dy() == h
		},
		gen.IntRange(0, 119),
		gen.IntRange(0, 89),
		gen.IntRange(1, 120),
		gen.IntRange(1, 90),
	))

	properties.TestingRun(t)
}
