// Package ocr defines the text-recognition capability used by the pipeline
// and the engines that provide it. An engine is an explicit handle injected
// by the caller; there is no global default. Engines that shell out or talk
// to a remote service report a missing backend with ErrEngineUnavailable at
// construction time, not on first use.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/MeKo-Tech/platecode/internal/detector"
)

// ErrEngineUnavailable reports that an engine's backend (binary, endpoint)
// cannot be reached. Callers should surface it, never swallow it into an
// empty result.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Result is a recognized span of text with its aggregate confidence on a
// 0.0-1.0 scale, the enclosing box in the coordinates of the input image,
// and the per-token confidences that went into the aggregate.
type Result struct {
	Text            string               `json:"text"`
	Confidence      float64              `json:"confidence"`
	Box             detector.BoundingBox `json:"box"`
	WordConfidences []float64            `json:"word_confidences,omitempty"`
}

// Hint carries optional per-call guidance for an engine. The zero value
// means engine defaults.
type Hint struct {
	// PSM is the page segmentation mode for engines that understand it
	// (Tesseract). 0 means the engine default.
	PSM int
	// Whitelist restricts recognition to the given characters where the
	// engine supports restriction.
	Whitelist string
}

// Engine recognizes text in images. Implementations need not be safe for
// concurrent use; wrap with Serialize when sharing one across goroutines.
type Engine interface {
	// Recognize returns all text found in the image as a single result.
	Recognize(ctx context.Context, img image.Image, hint Hint) (Result, error)
	// RecognizeLines returns one result per text line, top to bottom.
	RecognizeLines(ctx context.Context, img image.Image, hint Hint) ([]Result, error)
	Close() error
}

// Config selects and tunes an engine.
type Config struct {
	// Engine names the backend: "tesseract" or "paddle".
	Engine string `mapstructure:"engine" yaml:"engine" json:"engine"`
	// Binary overrides the tesseract executable path.
	Binary string `mapstructure:"binary" yaml:"binary" json:"binary"`
	// PSM is the default page segmentation mode for tesseract.
	PSM int `mapstructure:"psm" yaml:"psm" json:"psm"`
	// Languages is the tesseract language pack selector.
	Languages string `mapstructure:"languages" yaml:"languages" json:"languages"`
	// Endpoint is the PaddleOCR serving URL for the paddle engine.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
}

// DefaultConfig returns the tesseract engine with settings suited to short
// printed codes.
func DefaultConfig() Config {
	return Config{
		Engine:    "tesseract",
		PSM:       6,
		Languages: "eng",
	}
}

// New constructs the engine named by cfg.Engine.
func New(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case "", "tesseract":
		return NewTesseract(cfg)
	case "paddle":
		return NewPaddle(cfg)
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.Engine)
	}
}

// Serialize wraps an engine with a mutex so a single backend instance can be
// shared by concurrent callers. Calls are admitted one at a time in arrival
// order.
func Serialize(e Engine) Engine {
	return &serialized{inner: e}
}

type serialized struct {
	mu    sync.Mutex
	inner Engine
}

func (s *serialized) Recognize(ctx context.Context, img image.Image, hint Hint) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Recognize(ctx, img, hint)
}

func (s *serialized) RecognizeLines(ctx context.Context, img image.Image, hint Hint) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.RecognizeLines(ctx, img, hint)
}

func (s *serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
