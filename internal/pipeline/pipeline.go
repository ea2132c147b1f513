// Package pipeline wires detection, preprocessing, OCR and lexicon matching
// into the end-to-end plate recognition flow. A Pipeline is a pure forward
// pass over its immutable collaborators and is safe for concurrent use when
// its engine is (wrap shared engines with ocr.Serialize).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/MeKo-Tech/platecode/internal/detector"
	"github.com/MeKo-Tech/platecode/internal/lexicon"
	"github.com/MeKo-Tech/platecode/internal/ocr"
	"github.com/MeKo-Tech/platecode/internal/preprocess"
	"github.com/MeKo-Tech/platecode/internal/utils"
)

// Match methods, from strongest to weakest evidence.
const (
	MethodExact = "exact"
	MethodFuzzy = "fuzzy"
	MethodOCR   = "ocr"
)

// Config holds pipeline tuning parameters.
type Config struct {
	// MinConfidence is the floor below which combined results are dropped.
	MinConfidence float64 `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	// FuzzyThreshold is the minimum similarity for fuzzy lexicon matches.
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
	// Engine names the OCR backend ("tesseract" or "paddle").
	Engine string `mapstructure:"engine" yaml:"engine" json:"engine"`
	// EnginePath overrides the tesseract binary location.
	EnginePath string `mapstructure:"engine_path" yaml:"engine_path" json:"engine_path"`
	// Endpoint is the PaddleOCR serving URL for the paddle engine.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	// PSM is the tesseract page segmentation mode.
	PSM int `mapstructure:"psm" yaml:"psm" json:"psm"`
	// Strategy selects region detection: "contours", "lines" or "text".
	Strategy string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
}

// DefaultConfig returns pipeline defaults.
func DefaultConfig() Config {
	return Config{
		MinConfidence:  0.7,
		FuzzyThreshold: 0.8,
		Engine:         "tesseract",
		PSM:            6,
		Strategy:       "contours",
	}
}

// DetectionResult is one recognized code, positioned in the coordinates of
// the original input image.
type DetectionResult struct {
	Code         string               `json:"code"`
	Manufacturer string               `json:"manufacturer,omitempty"`
	Model        string               `json:"model,omitempty"`
	Category     string               `json:"category"`
	Confidence   float64              `json:"confidence"`
	Box          detector.BoundingBox `json:"box"`
	Method       string               `json:"method"`
}

// Pipeline runs the full recognition flow.
type Pipeline struct {
	cfg    Config
	lex    *lexicon.Lexicon
	prep   *preprocess.Preprocessor
	det    *detector.Detector
	engine ocr.Engine
}

// Builder assembles a Pipeline, supplying defaults for collaborators the
// caller does not override.
type Builder struct {
	cfg    Config
	lex    *lexicon.Lexicon
	prep   *preprocess.Preprocessor
	det    *detector.Detector
	engine ocr.Engine
}

// NewBuilder starts a builder with DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultConfig()}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithMinConfidence sets the result confidence floor.
func (b *Builder) WithMinConfidence(v float64) *Builder {
	b.cfg.MinConfidence = v
	return b
}

// WithFuzzyThreshold sets the fuzzy match similarity floor.
func (b *Builder) WithFuzzyThreshold(v float64) *Builder {
	b.cfg.FuzzyThreshold = v
	return b
}

// WithStrategy selects the detection strategy.
func (b *Builder) WithStrategy(s string) *Builder {
	b.cfg.Strategy = s
	return b
}

// WithLexicon injects a code catalog.
func (b *Builder) WithLexicon(lex *lexicon.Lexicon) *Builder {
	b.lex = lex
	return b
}

// WithPreprocessor injects a preprocessor.
func (b *Builder) WithPreprocessor(p *preprocess.Preprocessor) *Builder {
	b.prep = p
	return b
}

// WithDetector injects a region detector.
func (b *Builder) WithDetector(d *detector.Detector) *Builder {
	b.det = d
	return b
}

// WithEngine injects an OCR engine, bypassing construction from config.
func (b *Builder) WithEngine(e ocr.Engine) *Builder {
	b.engine = e
	return b
}

// Build validates the configuration and assembles the pipeline. When no
// engine was injected one is constructed from the config; a missing backend
// surfaces here as ocr.ErrEngineUnavailable.
func (b *Builder) Build() (*Pipeline, error) {
	if b.cfg.MinConfidence < 0 || b.cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("min confidence %v out of range [0,1]", b.cfg.MinConfidence)
	}
	if b.cfg.FuzzyThreshold < 0 || b.cfg.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("fuzzy threshold %v out of range [0,1]", b.cfg.FuzzyThreshold)
	}

	p := &Pipeline{
		cfg:    b.cfg,
		lex:    b.lex,
		prep:   b.prep,
		det:    b.det,
		engine: b.engine,
	}
	if p.lex == nil {
		p.lex = lexicon.Default()
	}
	if p.prep == nil {
		p.prep = preprocess.NewDefault()
	}
	if p.det == nil {
		p.det = detector.NewDefault()
	}
	if p.engine == nil {
		engine, err := ocr.New(ocr.Config{
			Engine:   p.cfg.Engine,
			Binary:   p.cfg.EnginePath,
			PSM:      p.cfg.PSM,
			Endpoint: p.cfg.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		p.engine = engine
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Lexicon returns the code catalog in use.
func (p *Pipeline) Lexicon() *lexicon.Lexicon { return p.lex }

// Close releases the underlying engine.
func (p *Pipeline) Close() error { return p.engine.Close() }

// Recognize runs the full flow on one image: detect candidate regions
// (falling back to the whole frame when none qualify), preprocess and OCR
// each region, match the text against the lexicon, then combine, filter and
// rank. A region whose OCR call fails contributes nothing, except when the
// failure is ocr.ErrEngineUnavailable: an unreachable backend is surfaced
// instead of folding into an empty result.
func (p *Pipeline) Recognize(ctx context.Context, img image.Image) ([]DetectionResult, error) {
	if img == nil {
		return nil, fmt.Errorf("recognize: nil image")
	}

	regions := p.det.DetectStrategy(img, p.cfg.Strategy)
	if len(regions) == 0 {
		regions = []detector.BoundingBox{detector.WholeImage(img)}
	}

	var results []DetectionResult
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		crop := detector.CropROI(img, region)
		if crop == nil || crop.Bounds().Dx() == 0 || crop.Bounds().Dy() == 0 {
			continue
		}
		processed := p.prep.PreprocessForOCR(crop)
		recognized, err := p.engine.Recognize(ctx, processed, ocr.Hint{PSM: p.cfg.PSM})
		if err != nil {
			// A missing backend must not masquerade as "nothing found".
			if ctx.Err() != nil || errors.Is(err, ocr.ErrEngineUnavailable) {
				return nil, err
			}
			continue
		}
		if recognized.Text == "" {
			continue
		}
		for _, match := range p.AnalyzeText(recognized.Text) {
			match.Confidence *= recognized.Confidence
			match.Box = offsetBox(recognized.Box, region)
			results = append(results, match)
		}
	}

	return rankResults(results, p.cfg.MinConfidence), nil
}

// RecognizeFile loads an image from disk and runs Recognize on it.
func (p *Pipeline) RecognizeFile(ctx context.Context, path string) ([]DetectionResult, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, err
	}
	return p.Recognize(ctx, img)
}

// BestMatch returns the highest-confidence result, if any.
func (p *Pipeline) BestMatch(ctx context.Context, img image.Image) (DetectionResult, bool, error) {
	results, err := p.Recognize(ctx, img)
	if err != nil || len(results) == 0 {
		return DetectionResult{}, false, err
	}
	return results[0], true, nil
}

// offsetBox translates a box recognized inside a cropped region back into
// the coordinates of the original image. A zero recognized box means the
// engine gave no geometry; the region itself is the best answer then.
func offsetBox(inner, region detector.BoundingBox) detector.BoundingBox {
	if inner.Width == 0 || inner.Height == 0 {
		return region
	}
	inner.X += region.X
	inner.Y += region.Y
	return inner
}

// rankResults drops weak results, collapses duplicates of the same code to
// the strongest occurrence and orders by confidence descending. Equal
// confidences keep first-seen order, so ranking does not depend on which
// region produced a code first.
func rankResults(results []DetectionResult, minConfidence float64) []DetectionResult {
	kept := make([]DetectionResult, 0, len(results))
	index := make(map[string]int)
	for _, r := range results {
		if r.Confidence < minConfidence {
			continue
		}
		if at, seen := index[r.Code]; seen {
			if r.Confidence > kept[at].Confidence {
				kept[at] = r
			}
			continue
		}
		index[r.Code] = len(kept)
		kept = append(kept, r)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	return kept
}
