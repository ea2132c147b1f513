package utils

import (
	"image"
	"image/color"
)

// ToGray converts any image to an 8-bit grayscale plane with its own bounds
// normalized to (0,0). The standard library's luminance weights are used.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return dst
}

// IsGrayscale reports whether every pixel has equal RGB channels.
func IsGrayscale(img image.Image) bool {
	if _, ok := img.(*image.Gray); ok {
		return true
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				return false
			}
		}
	}
	return true
}

// IntegralImage computes a summed-area table over the gray plane. The table
// has one extra row and column of zeros so that the sum over [x0,x1)x[y0,y1)
// is ii[y1][x1]-ii[y0][x1]-ii[y1][x0]+ii[y0][x0].
func IntegralImage(gray *image.Gray) [][]float64 {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	ii := make([][]float64, h+1)
	ii[0] = make([]float64, w+1)
	for y := 1; y <= h; y++ {
		ii[y] = make([]float64, w+1)
		var rowSum float64
		for x := 1; x <= w; x++ {
			rowSum += float64(gray.GrayAt(x-1, y-1).Y)
			ii[y][x] = ii[y-1][x] + rowSum
		}
	}
	return ii
}

// IntegralSquares computes a summed-area table of squared pixel values,
// used together with IntegralImage for local variance.
func IntegralSquares(gray *image.Gray) [][]float64 {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	ii := make([][]float64, h+1)
	ii[0] = make([]float64, w+1)
	for y := 1; y <= h; y++ {
		ii[y] = make([]float64, w+1)
		var rowSum float64
		for x := 1; x <= w; x++ {
			v := float64(gray.GrayAt(x-1, y-1).Y)
			rowSum += v * v
			ii[y][x] = ii[y-1][x] + rowSum
		}
	}
	return ii
}

// WindowSum returns the sum over the half-open window [x0,x1)x[y0,y1) of a
// summed-area table, clamping the window to the table's extent.
func WindowSum(ii [][]float64, x0, y0, x1, y1 int) float64 {
	h := len(ii) - 1
	w := len(ii[0]) - 1
	x0 = ClampInt(x0, 0, w)
	x1 = ClampInt(x1, 0, w)
	y0 = ClampInt(y0, 0, h)
	y1 = ClampInt(y1, 0, h)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return ii[y1][x1] - ii[y0][x1] - ii[y1][x0] + ii[y0][x0]
}

// ClampInt clamps v into [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUint8 clamps a float value into the 0-255 pixel range.
func ClampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
