// Package preprocess implements the deterministic image-conditioning stages
// that turn a raw plate photograph into an OCR-ready bitmap. Stages are
// individually exported; PreprocessForOCR runs them in the fixed order
// deskew -> contrast -> denoise -> sharpen -> binarize -> close.
package preprocess

import (
	"image"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// BinarizeMethod selects the adaptive thresholding variant.
type BinarizeMethod string

const (
	BinarizeSauvola  BinarizeMethod = "sauvola"
	BinarizeMean     BinarizeMethod = "mean"
	BinarizeGaussian BinarizeMethod = "gaussian"
)

// Config holds tuning parameters for the preprocessing stages.
type Config struct {
	// Deskew
	SkewThresholdRad float64 // rotate only when |median angle| exceeds this
	HoughVoteThresh  int     // minimum accumulator votes for a line

	// Contrast (CLAHE)
	ClipLimit float64 // relative histogram clip limit
	TileGrid  int     // tiles per axis

	// Denoise (bilateral)
	BilateralRadius int
	SigmaColor      float64
	SigmaSpace      float64

	// Sharpen (unsharp mask)
	UnsharpSigma  float64
	UnsharpAmount float64 // weight of the original; blur weight is 1-amount

	// Binarize
	Method        BinarizeMethod
	SauvolaWindow int
	SauvolaK      float64
	SauvolaR      float64
	AdaptiveBlock int // window for mean/gaussian methods
	AdaptiveC     float64
}

// DefaultConfig returns the stage parameters used for plate photographs.
func DefaultConfig() Config {
	return Config{
		SkewThresholdRad: 0.1,
		HoughVoteThresh:  100,
		ClipLimit:        2.0,
		TileGrid:         8,
		BilateralRadius:  4,
		SigmaColor:       75,
		SigmaSpace:       75,
		UnsharpSigma:     2.0,
		UnsharpAmount:    1.5,
		Method:           BinarizeSauvola,
		SauvolaWindow:    15,
		SauvolaK:         0.2,
		SauvolaR:         128,
		AdaptiveBlock:    11,
		AdaptiveC:        2,
	}
}

// Preprocessor applies the conditioning pipeline. It holds no mutable state
// and is safe for concurrent use.
type Preprocessor struct {
	cfg Config
}

// New creates a Preprocessor with the given configuration.
func New(cfg Config) *Preprocessor { return &Preprocessor{cfg: cfg} }

// NewDefault creates a Preprocessor with DefaultConfig.
func NewDefault() *Preprocessor { return New(DefaultConfig()) }

// Config returns the preprocessor configuration.
func (p *Preprocessor) Config() Config { return p.cfg }

// PreprocessForOCR runs the full conditioning pipeline. It never fails: any
// stage that cannot run (degenerate dimensions, nil input) yields its input
// unchanged, so the worst case is the original image passed through.
func (p *Preprocessor) PreprocessForOCR(img image.Image) image.Image {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return img
	}
	deskewed := p.Deskew(img)
	enhanced := p.EnhanceContrast(deskewed)
	denoised := p.Denoise(enhanced)
	sharpened := p.Sharpen(denoised)
	binary := p.Binarize(sharpened)
	return Close(binary, 2)
}

// PrepareForDetection is the lighter conditioning variant used by the region
// detector: Gaussian blur, gaussian adaptive threshold, small close. It keeps
// coarse structure while suppressing texture the detector would otherwise
// split into spurious components.
func (p *Preprocessor) PrepareForDetection(img image.Image) *image.Gray {
	gray := utils.ToGray(img)
	if gray.Bounds().Dx() == 0 || gray.Bounds().Dy() == 0 {
		return gray
	}
	blurred := GaussianBlurGray(gray, 1.0)
	binary := AdaptiveThreshold(blurred, BinarizeGaussian, p.cfg.AdaptiveBlock, p.cfg.AdaptiveC, p.cfg)
	return Close(binary, 2)
}

// Binarize applies the configured adaptive threshold to the image's gray
// plane, returning a 0/255 binary image with foreground white.
func (p *Preprocessor) Binarize(img image.Image) *image.Gray {
	return AdaptiveThreshold(utils.ToGray(img), p.cfg.Method, p.cfg.AdaptiveBlock, p.cfg.AdaptiveC, p.cfg)
}
