package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/platecode/internal/detector"
)

// lineGroupTolerance is the vertical distance in pixels within which
// consecutive tokens are considered part of the same text line.
const lineGroupTolerance = 10

// Tesseract runs the external tesseract binary and parses its TSV output.
// One process is spawned per call; the zero-state struct has no process to
// clean up, so Close is a no-op. Not safe for concurrent use when callers
// care about backend load ordering; wrap with Serialize if shared.
type Tesseract struct {
	binary    string
	psm       int
	languages string
}

// NewTesseract locates the tesseract binary and returns an engine bound to
// it. A missing binary yields ErrEngineUnavailable.
func NewTesseract(cfg Config) (*Tesseract, error) {
	binary := cfg.Binary
	if binary == "" {
		binary = "tesseract"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("tesseract binary %q: %w", binary, ErrEngineUnavailable)
	}
	psm := cfg.PSM
	if psm == 0 {
		psm = 6
	}
	langs := cfg.Languages
	if langs == "" {
		langs = "eng"
	}
	return &Tesseract{binary: path, psm: psm, languages: langs}, nil
}

// Recognize aggregates every confident token in the image into one result.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, hint Hint) (Result, error) {
	words, err := t.run(ctx, img, hint)
	if err != nil {
		return Result{}, err
	}
	return aggregateWords(words), nil
}

// RecognizeLines groups confident tokens into lines by vertical proximity
// and returns one aggregated result per line.
func (t *Tesseract) RecognizeLines(ctx context.Context, img image.Image, hint Hint) ([]Result, error) {
	words, err := t.run(ctx, img, hint)
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, line := range groupIntoLines(words) {
		results = append(results, aggregateWords(line))
	}
	return results, nil
}

func (t *Tesseract) Close() error { return nil }

// word is a single recognized token from the TSV stream, confidence on the
// backend's 0-100 scale.
type word struct {
	text       string
	confidence float64
	box        detector.BoundingBox
}

func (t *Tesseract) run(ctx context.Context, img image.Image, hint Hint) ([]word, error) {
	if img == nil {
		return nil, fmt.Errorf("tesseract: nil image")
	}
	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return nil, fmt.Errorf("tesseract: encode input: %w", err)
	}

	psm := t.psm
	if hint.PSM != 0 {
		psm = hint.PSM
	}
	args := []string{"stdin", "stdout", "-l", t.languages, "--psm", strconv.Itoa(psm)}
	if hint.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+hint.Whitelist)
	}
	args = append(args, "tsv")

	cmd := exec.CommandContext(ctx, t.binary, args...)
	cmd.Stdin = &input
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseTSV(stdout.String()), nil
}

// parseTSV extracts word-level rows (level 5) from tesseract's TSV output.
// Rows with confidence <= 0 carry layout markers or noise and are dropped.
func parseTSV(output string) []word {
	var words []word
	for i, line := range strings.Split(output, "\n") {
		if i == 0 || line == "" { // header row
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		level, err := strconv.Atoi(fields[0])
		if err != nil || level != 5 {
			continue
		}
		conf, err := strconv.ParseFloat(fields[10], 64)
		if err != nil || conf <= 0 {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}
		left, _ := strconv.Atoi(fields[6])
		top, _ := strconv.Atoi(fields[7])
		width, _ := strconv.Atoi(fields[8])
		height, _ := strconv.Atoi(fields[9])
		words = append(words, word{
			text:       text,
			confidence: conf,
			box:        detector.BoundingBox{X: left, Y: top, Width: width, Height: height},
		})
	}
	return words
}

// groupIntoLines splits tokens into lines: a token starts a new line when
// its top edge is more than lineGroupTolerance pixels from the previous
// token's. Tokens arrive in reading order from the backend.
func groupIntoLines(words []word) [][]word {
	var lines [][]word
	for _, w := range words {
		if len(lines) > 0 {
			last := lines[len(lines)-1]
			prev := last[len(last)-1]
			if absInt(w.box.Y-prev.box.Y) < lineGroupTolerance {
				lines[len(lines)-1] = append(last, w)
				continue
			}
		}
		lines = append(lines, []word{w})
	}
	return lines
}

// aggregateWords joins tokens with spaces, averages their confidences down
// to the 0.0-1.0 scale, and takes the union of their boxes.
func aggregateWords(words []word) Result {
	if len(words) == 0 {
		return Result{}
	}
	var (
		texts []string
		confs []float64
		sum   float64
	)
	box := words[0].box
	for _, w := range words {
		texts = append(texts, w.text)
		confs = append(confs, w.confidence/100)
		sum += w.confidence / 100
		box = unionBox(box, w.box)
	}
	box.Confidence = sum / float64(len(words))
	return Result{
		Text:            strings.Join(texts, " "),
		Confidence:      sum / float64(len(words)),
		Box:             box,
		WordConfidences: confs,
	}
}

func unionBox(a, b detector.BoundingBox) detector.BoundingBox {
	x0 := minInt(a.X, b.X)
	y0 := minInt(a.Y, b.Y)
	x1 := maxInt(a.X+a.Width, b.X+b.Width)
	y1 := maxInt(a.Y+a.Height, b.Y+b.Height)
	return detector.BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
