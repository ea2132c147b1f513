package utils

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(t.TempDir(), "sample.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadImage(t *testing.T) {
	path := writePNG(t, 48, 32)

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 48, meta.Width)
	assert.Equal(t, 32, meta.Height)
	assert.InDelta(t, 1.5, meta.AspectRatio, 1e-9)
	assert.Positive(t, meta.SizeBytes)
}

func TestLoadImageErrors(t *testing.T) {
	_, _, err := LoadImage("")
	assert.Error(t, err)

	_, _, err = LoadImage("plate.tiff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")

	_, _, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestLoadImageDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o644))

	_, _, err := LoadImage(path)
	require.Error(t, err)
	assert.True(t, IsDecodeError(err))

	var ipe *ImageProcessingError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, "decode", ipe.Operation)
}

func TestIsDecodeError(t *testing.T) {
	assert.False(t, IsDecodeError(nil))
	assert.False(t, IsDecodeError(errors.New("plain")))
	assert.False(t, IsDecodeError(&ImageProcessingError{Operation: "load", Err: errors.New("x")}))
	assert.True(t, IsDecodeError(&ImageProcessingError{Operation: "decode", Err: errors.New("x")}))
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("a.jpg"))
	assert.True(t, IsSupportedImage("a.JPEG"))
	assert.True(t, IsSupportedImage("a.png"))
	assert.True(t, IsSupportedImage("a.bmp"))
	assert.False(t, IsSupportedImage("a.tiff"))
	assert.False(t, IsSupportedImage("a"))
}

func TestDecodeImage(t *testing.T) {
	path := writePNG(t, 8, 8)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	img, format, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 8, img.Bounds().Dx())

	_, _, err = DecodeImage([]byte("garbage"))
	assert.True(t, IsDecodeError(err))
}

func TestToGray(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 6))
	gray := ToGray(img)
	assert.Equal(t, 10, gray.Bounds().Dx())
	assert.Equal(t, 6, gray.Bounds().Dy())

	// Already-gray input passes through unchanged in size.
	again := ToGray(gray)
	assert.Equal(t, gray.Bounds(), again.Bounds())
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 5, ClampInt(5, 0, 10))
	assert.Equal(t, 0, ClampInt(-3, 0, 10))
	assert.Equal(t, 10, ClampInt(42, 0, 10))
}

func TestClampUint8(t *testing.T) {
	assert.Equal(t, uint8(0), ClampUint8(-1.5))
	assert.Equal(t, uint8(255), ClampUint8(300))
	assert.Equal(t, uint8(128), ClampUint8(128))
}

func TestIntegralImageWindowSum(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			gray.SetGray(x, y, color.Gray{Y: 10})
		}
	}
	ii := IntegralImage(gray)

	assert.InDelta(t, 160.0, WindowSum(ii, 0, 0, 4, 4), 1e-9)
	assert.InDelta(t, 40.0, WindowSum(ii, 1, 1, 3, 3), 1e-9)
	assert.Zero(t, WindowSum(ii, 2, 2, 2, 2))
}
