package preprocess

import (
	"image"
	"math"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// Sharpen applies an unsharp mask on the luminance channel: blur, then
// extrapolate the original away from the blur (1.5x original - 0.5x blur).
// This recovers the edge contrast the denoise stage smoothed away.
func (p *Preprocessor) Sharpen(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	luma := extractLuma(img)
	blurred := gaussianBlurPlane(luma, w, h, p.cfg.UnsharpSigma)

	amount := p.cfg.UnsharpAmount
	sharpened := make([]uint8, len(luma))
	for i := range luma {
		v := amount*float64(luma[i]) - (amount-1)*float64(blurred[i])
		sharpened[i] = utils.ClampUint8(v)
	}

	if utils.IsGrayscale(img) {
		out := image.NewGray(image.Rect(0, 0, w, h))
		copy(out.Pix, sharpened)
		return out
	}
	return replaceLuma(img, sharpened)
}

// GaussianBlurGray blurs a gray image with a separable Gaussian kernel.
func GaussianBlurGray(gray *image.Gray, sigma float64) *image.Gray {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, gray.Pix)
	if w == 0 || h == 0 || sigma <= 0 {
		return out
	}
	blurred := gaussianBlurPlane(gray.Pix, w, h, sigma)
	copy(out.Pix, blurred)
	return out
}

// gaussianBlurPlane runs a separable Gaussian over a uint8 plane. The kernel
// radius is 3*sigma, the usual support for negligible truncation error.
func gaussianBlurPlane(src []uint8, w, h int, sigma float64) []uint8 {
	radius := int(math.Ceil(3 * sigma))
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	// Horizontal pass
	tmp := make([]float64, w*h)
	for y := range h {
		for x := range w {
			var acc float64
			for k := -radius; k <= radius; k++ {
				xx := utils.ClampInt(x+k, 0, w-1)
				acc += kernel[k+radius] * float64(src[y*w+xx])
			}
			tmp[y*w+x] = acc
		}
	}
	// Vertical pass
	out := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			var acc float64
			for k := -radius; k <= radius; k++ {
				yy := utils.ClampInt(y+k, 0, h-1)
				acc += kernel[k+radius] * tmp[yy*w+x]
			}
			out[y*w+x] = utils.ClampUint8(acc)
		}
	}
	return out
}
