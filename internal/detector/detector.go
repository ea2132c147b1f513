// Package detector finds candidate sub-rectangles of a plate photograph
// likely to contain printed identification codes. Four strategies are
// available (contours, lines, template, text regions); all share the same
// geometric validity filter and none mutates its input. A strategy that
// finds nothing returns an empty slice, never an error.
package detector

import (
	"image"
	"sort"

	"github.com/MeKo-Tech/platecode/internal/preprocess"
)

// Config holds detection tuning parameters.
type Config struct {
	// Shared validity filter
	MinArea        int
	MaxArea        int
	MinAspectRatio float64
	MaxAspectRatio float64

	// Edge detection (line strategy and deskewing share the same pair)
	CannyLow  float64
	CannyHigh float64

	// Line strategy
	LineVoteThresh int // Hough accumulator votes for a candidate line
	MinLineLength  int
	MaxLineGap     int
	GroupTolerance int // px distance for greedy endpoint clustering

	// Template strategy
	TemplateThreshold float64 // minimum normalized cross-correlation score

	// Text-region strategy
	MSERDelta     int     // threshold sweep step
	MSERStability int     // consecutive levels a blob must persist
	MSERMaxIoU    float64 // IoU above which blobs across levels are the same
}

// DefaultConfig returns detection defaults tuned for plate photographs.
func DefaultConfig() Config {
	return Config{
		MinArea:           100,
		MaxArea:           50000,
		MinAspectRatio:    0.1,
		MaxAspectRatio:    10.0,
		CannyLow:          50,
		CannyHigh:         150,
		LineVoteThresh:    50,
		MinLineLength:     30,
		MaxLineGap:        10,
		GroupTolerance:    20,
		TemplateThreshold: 0.7,
		MSERDelta:         8,
		MSERStability:     3,
		MSERMaxIoU:        0.9,
	}
}

// Detector runs region detection. Stateless apart from configuration, safe
// for concurrent use across images.
type Detector struct {
	cfg  Config
	prep *preprocess.Preprocessor
}

// New creates a Detector with the given configuration.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg, prep: preprocess.NewDefault()}
}

// NewDefault creates a Detector with DefaultConfig.
func NewDefault() *Detector { return New(DefaultConfig()) }

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.cfg }

// Detect returns candidate regions using the default contour strategy,
// ordered by area descending.
func (d *Detector) Detect(img image.Image) []BoundingBox {
	return d.DetectByContours(img)
}

// DetectStrategy runs the named strategy: "contours" (the default), "lines"
// or "text". The template strategy needs a template image and is only
// reachable through DetectByTemplate.
func (d *Detector) DetectStrategy(img image.Image, strategy string) []BoundingBox {
	switch strategy {
	case "lines":
		return d.DetectByLines(img)
	case "text":
		return d.DetectTextRegions(img)
	default:
		return d.DetectByContours(img)
	}
}

// isValidROI applies the shared geometric filter: plausible area, plausible
// aspect ratio, fully inside the image.
func (d *Detector) isValidROI(box BoundingBox, imgW, imgH int) bool {
	area := box.Area()
	aspect := box.AspectRatio()
	return area >= d.cfg.MinArea && area <= d.cfg.MaxArea &&
		aspect >= d.cfg.MinAspectRatio && aspect <= d.cfg.MaxAspectRatio &&
		box.X >= 0 && box.Y >= 0 &&
		box.X+box.Width <= imgW && box.Y+box.Height <= imgH
}

// sortByAreaDesc orders boxes largest-first; equal areas keep insertion order.
func sortByAreaDesc(boxes []BoundingBox) {
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Area() > boxes[j].Area()
	})
}
