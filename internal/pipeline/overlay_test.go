package pipeline

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platecode/internal/detector"
	"github.com/MeKo-Tech/platecode/internal/testutil"
)

func TestBandColor(t *testing.T) {
	assert.Equal(t, colorHigh, bandColor(0.95))
	assert.Equal(t, colorHigh, bandColor(0.9))
	assert.Equal(t, colorMedium, bandColor(0.89))
	assert.Equal(t, colorMedium, bandColor(0.7))
	assert.Equal(t, colorLow, bandColor(0.69))
	assert.Equal(t, colorLow, bandColor(0.0))
}

func TestRenderOverlayPreservesInput(t *testing.T) {
	img := testutil.SolidImage(200, 100, color.White)
	results := []DetectionResult{
		{Code: "VF1", Confidence: 0.95, Box: detector.BoundingBox{X: 20, Y: 30, Width: 80, Height: 40}},
	}

	out := RenderOverlay(img, results)
	require.NotNil(t, out)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 100, out.Bounds().Dy())

	// The box edge is drawn on the copy only.
	r, g, b, _ := out.At(20, 30).RGBA()
	assert.False(t, r>>8 == 255 && g>>8 == 255 && b>>8 == 255)
	r, g, b, _ = img.At(20, 30).RGBA()
	assert.True(t, r>>8 == 255 && g>>8 == 255 && b>>8 == 255)
}

func TestRenderOverlayNoResults(t *testing.T) {
	img := testutil.SolidImage(64, 48, color.Black)
	out := RenderOverlay(img, nil)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}
