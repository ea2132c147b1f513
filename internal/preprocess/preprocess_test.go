package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platecode/internal/testutil"
	"github.com/MeKo-Tech/platecode/internal/utils"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.InDelta(t, 0.1, cfg.SkewThresholdRad, 1e-9)
	assert.InDelta(t, 2.0, cfg.ClipLimit, 1e-9)
	assert.Equal(t, 8, cfg.TileGrid)
	assert.Equal(t, BinarizeSauvola, cfg.Method)
	assert.Equal(t, 15, cfg.SauvolaWindow)
	assert.InDelta(t, 0.2, cfg.SauvolaK, 1e-9)
}

func TestBinarizeOutputIsBinary(t *testing.T) {
	img := testutil.GenerateCodeImage("VF1 RJA")
	p := NewDefault()

	binary := p.Binarize(img)
	require.NotNil(t, binary)
	for _, v := range binary.Pix {
		assert.True(t, v == 0 || v == 255, "pixel value %d", v)
	}
}

func TestBinarizePreservesDimensions(t *testing.T) {
	img := testutil.GenerateCodeImage("UU1")
	p := NewDefault()

	binary := p.Binarize(img)
	assert.Equal(t, img.Bounds().Dx(), binary.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), binary.Bounds().Dy())
}

func TestBinarizeSeparatesTextFromBackground(t *testing.T) {
	img := testutil.GenerateCodeImage("VF1RJA0001234567")
	p := NewDefault()

	binary := p.Binarize(img)
	white, black := 0, 0
	for _, v := range binary.Pix {
		if v == 255 {
			white++
		} else {
			black++
		}
	}
	// A light plate with a short dark code: both classes present, background
	// dominant.
	assert.Positive(t, black)
	assert.Greater(t, white, black)
}

func TestSauvolaThresholdUniformImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range gray.Pix {
		gray.Pix[i] = 200
	}

	out := SauvolaThreshold(gray, 15, 0.2, 128)
	require.NotNil(t, out)
	// Uniform light input has zero local deviation; everything lands on one
	// side of the threshold.
	for _, v := range out.Pix {
		assert.Equal(t, uint8(255), v)
	}
}

func TestAdaptiveThresholdMethods(t *testing.T) {
	gray := utils.ToGray(testutil.GenerateCodeImage("RJA"))
	cfg := DefaultConfig()

	for _, method := range []BinarizeMethod{BinarizeSauvola, BinarizeMean, BinarizeGaussian} {
		out := AdaptiveThreshold(gray, method, cfg.AdaptiveBlock, cfg.AdaptiveC, cfg)
		require.NotNil(t, out, "method %s", method)
		assert.Equal(t, gray.Bounds(), out.Bounds(), "method %s", method)
	}
}

func TestEstimateSkewOnRotatedText(t *testing.T) {
	cfg := testutil.DefaultPlateImageConfig()
	cfg.Text = "VF1RJA0001234567 VF1RJA0001234567"
	cfg.Rotation = 8
	img := testutil.GeneratePlateImage(cfg)

	p := NewDefault()
	angle, ok := p.EstimateSkew(img)
	if !ok {
		t.Skip("not enough line votes on synthetic image")
	}
	// The dominant text line should read as visibly tilted.
	assert.Greater(t, absFloat(angle), 0.02)
}

func TestDeskewIdentityOnStraightText(t *testing.T) {
	img := testutil.GenerateCodeImage("VF1RJA0001234567")
	p := NewDefault()

	out := p.Deskew(img)
	// Below the skew threshold the input passes through unchanged.
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestEnhanceContrastPreservesDimensions(t *testing.T) {
	img := testutil.GenerateCodeImage("VF1")
	p := NewDefault()

	out := p.EnhanceContrast(img)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}

func TestEnhanceContrastSpreadsHistogram(t *testing.T) {
	// Low-contrast input: values squeezed into [100, 140].
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(100 + (x+y)%40)})
		}
	}
	p := NewDefault()

	out := utils.ToGray(p.EnhanceContrast(img))
	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	assert.Greater(t, int(hi)-int(lo), 40)
}

func TestDenoisePreservesDimensions(t *testing.T) {
	img := testutil.GenerateCodeImage("UU1DJF")
	p := NewDefault()

	out := p.Denoise(img)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}

func TestSharpenPreservesDimensions(t *testing.T) {
	img := testutil.GenerateCodeImage("RHN")
	p := NewDefault()

	out := p.Sharpen(img)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}

func TestPreprocessForOCRProducesBinaryOutput(t *testing.T) {
	img := testutil.GenerateCodeImage("VF1RJA0001234567")
	p := NewDefault()

	out := p.PreprocessForOCR(img)
	require.NotNil(t, out)

	gray := utils.ToGray(out)
	for _, v := range gray.Pix {
		assert.True(t, v == 0 || v == 255, "pixel value %d", v)
	}
}

func TestPrepareForDetection(t *testing.T) {
	img := testutil.GenerateCodeImage("VF1")
	p := NewDefault()

	out := p.PrepareForDetection(img)
	require.NotNil(t, out)
	assert.Equal(t, img.Bounds().Dx(), out.Bounds().Dx())
	assert.Equal(t, img.Bounds().Dy(), out.Bounds().Dy())
}

func TestMorphologyCloseFillsGaps(t *testing.T) {
	// A thin vertical crack in a foreground block closes.
	binary := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			if x == 10 {
				continue
			}
			binary.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	closed := Close(binary, 2)
	filled := 0
	for y := 6; y < 14; y++ {
		if closed.GrayAt(10, y).Y == 255 {
			filled++
		}
	}
	assert.Positive(t, filled)
}

func TestMorphologyErodeShrinks(t *testing.T) {
	binary := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			binary.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	eroded := Erode(binary, 2)
	before, after := 0, 0
	for i := range binary.Pix {
		if binary.Pix[i] == 255 {
			before++
		}
		if eroded.Pix[i] == 255 {
			after++
		}
	}
	assert.Less(t, after, before)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
