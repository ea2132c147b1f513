package preprocess

import (
	"image"
	"math"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// AdaptiveThreshold binarizes a gray image with a locally adaptive threshold.
// The Sauvola method handles the spatially varying brightness of embossed,
// glossy plates that defeats any single global threshold; mean and gaussian
// variants are available for flatter material. Foreground is white (255).
func AdaptiveThreshold(gray *image.Gray, method BinarizeMethod, block int, c float64, cfg Config) *image.Gray {
	switch method {
	case BinarizeMean:
		return meanThreshold(gray, block, c)
	case BinarizeGaussian:
		return gaussianThreshold(gray, block, c)
	default:
		return SauvolaThreshold(gray, cfg.SauvolaWindow, cfg.SauvolaK, cfg.SauvolaR)
	}
}

// SauvolaThreshold binarizes against t = m * (1 + k*(s/R - 1)) where m and s
// are the local mean and standard deviation over a window x window
// neighborhood. Integral images make the window sums O(1) per pixel.
func SauvolaThreshold(gray *image.Gray, window int, k, r float64) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if window < 3 {
		window = 3
	}
	half := window / 2

	ii := utils.IntegralImage(gray)
	ii2 := utils.IntegralSquares(gray)

	for y := range h {
		for x := range w {
			x0, y0 := x-half, y-half
			x1, y1 := x+half+1, y+half+1
			n := float64((utils.ClampInt(x1, 0, w) - utils.ClampInt(x0, 0, w)) *
				(utils.ClampInt(y1, 0, h) - utils.ClampInt(y0, 0, h)))
			sum := utils.WindowSum(ii, x0, y0, x1, y1)
			sumSq := utils.WindowSum(ii2, x0, y0, x1, y1)

			mean := sum / n
			variance := sumSq/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			stddev := math.Sqrt(variance)

			threshold := mean * (1 + k*(stddev/r-1))
			if float64(gray.GrayAt(x, y).Y) > threshold {
				out.SetGray(x, y, grayWhite)
			}
		}
	}
	return out
}

// meanThreshold binarizes against the local arithmetic mean minus C.
func meanThreshold(gray *image.Gray, block int, c float64) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if block < 3 {
		block = 3
	}
	half := block / 2
	ii := utils.IntegralImage(gray)

	for y := range h {
		for x := range w {
			x0, y0 := x-half, y-half
			x1, y1 := x+half+1, y+half+1
			n := float64((utils.ClampInt(x1, 0, w) - utils.ClampInt(x0, 0, w)) *
				(utils.ClampInt(y1, 0, h) - utils.ClampInt(y0, 0, h)))
			mean := utils.WindowSum(ii, x0, y0, x1, y1) / n
			if float64(gray.GrayAt(x, y).Y) > mean-c {
				out.SetGray(x, y, grayWhite)
			}
		}
	}
	return out
}

// gaussianThreshold binarizes against a Gaussian-weighted local mean minus C.
func gaussianThreshold(gray *image.Gray, block int, c float64) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	if block < 3 {
		block = 3
	}
	// Sigma chosen as OpenCV does for its gaussian adaptive threshold.
	sigma := 0.3*(float64(block-1)*0.5-1) + 0.8
	weighted := gaussianBlurPlane(gray.Pix, w, h, sigma)

	for y := range h {
		for x := range w {
			if float64(gray.GrayAt(x, y).Y) > float64(weighted[y*w+x])-c {
				out.SetGray(x, y, grayWhite)
			}
		}
	}
	return out
}
