package ocr

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/platecode/internal/detector"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t20\t200\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t20\t60\t30\t91.5\tVF1\n" +
	"5\t1\t1\t1\t1\t2\t80\t22\t90\t28\t85.0\tRJA\n" +
	"5\t1\t1\t1\t1\t3\t180\t21\t40\t29\t0\tnoise\n" +
	"5\t1\t1\t1\t2\t1\t10\t60\t120\t30\t70.0\tUU1\n"

func TestParseTSV(t *testing.T) {
	words := parseTSV(sampleTSV)
	require.Len(t, words, 3)

	assert.Equal(t, "VF1", words[0].text)
	assert.InDelta(t, 91.5, words[0].confidence, 1e-9)
	assert.Equal(t, detector.BoundingBox{X: 10, Y: 20, Width: 60, Height: 30}, words[0].box)

	assert.Equal(t, "RJA", words[1].text)
	assert.Equal(t, "UU1", words[2].text)
}

func TestParseTSVDropsZeroConfidence(t *testing.T) {
	for _, w := range parseTSV(sampleTSV) {
		assert.Positive(t, w.confidence)
		assert.NotEqual(t, "noise", w.text)
	}
}

func TestParseTSVEmptyAndMalformed(t *testing.T) {
	assert.Empty(t, parseTSV(""))
	assert.Empty(t, parseTSV("level\tpage_num\n"))
	assert.Empty(t, parseTSV("level\tconf\ttext\nnot\tenough\tfields\n"))
}

func TestGroupIntoLines(t *testing.T) {
	words := parseTSV(sampleTSV)
	lines := groupIntoLines(words)
	require.Len(t, lines, 2)

	// VF1 and RJA share a baseline within the tolerance; UU1 sits 40px lower.
	assert.Len(t, lines[0], 2)
	assert.Len(t, lines[1], 1)
}

func TestAggregateWords(t *testing.T) {
	words := parseTSV(sampleTSV)
	result := aggregateWords(words[:2])

	assert.Equal(t, "VF1 RJA", result.Text)
	assert.InDelta(t, (0.915+0.85)/2, result.Confidence, 1e-9)
	require.Len(t, result.WordConfidences, 2)
	assert.InDelta(t, 0.915, result.WordConfidences[0], 1e-9)

	// Union of the two token boxes.
	assert.Equal(t, 10, result.Box.X)
	assert.Equal(t, 20, result.Box.Y)
	assert.Equal(t, 160, result.Box.Width)
	assert.Equal(t, 30, result.Box.Height)
}

func TestAggregateWordsEmpty(t *testing.T) {
	assert.Equal(t, Result{}, aggregateWords(nil))
}

func TestNewUnknownEngine(t *testing.T) {
	_, err := New(Config{Engine: "nope"})
	assert.Error(t, err)
}

func TestNewPaddleRequiresEndpoint(t *testing.T) {
	_, err := NewPaddle(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestNewTesseractMissingBinary(t *testing.T) {
	_, err := NewTesseract(Config{Binary: "definitely-not-a-real-binary-name"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestRegionToBox(t *testing.T) {
	box := regionToBox([][]float64{{10, 20}, {110, 20}, {110, 50}, {10, 50}})
	assert.Equal(t, detector.BoundingBox{X: 10, Y: 20, Width: 100, Height: 30}, box)

	assert.Equal(t, detector.BoundingBox{}, regionToBox(nil))
}

func TestRegionToBoxTruncatedPoints(t *testing.T) {
	// A truncated leading point must be skipped, not dereferenced.
	box := regionToBox([][]float64{{10}, {110, 20}, {110, 50}, {10, 50}})
	assert.Equal(t, detector.BoundingBox{X: 10, Y: 20, Width: 100, Height: 30}, box)

	assert.Equal(t, detector.BoundingBox{}, regionToBox([][]float64{{1}, {}, {2}}))
}

// countingEngine records calls and whether any two overlapped in time.
type countingEngine struct {
	mu      sync.Mutex
	active  int
	overlap bool
	calls   int
}

func (c *countingEngine) enter() {
	c.mu.Lock()
	c.active++
	c.calls++
	if c.active > 1 {
		c.overlap = true
	}
	c.mu.Unlock()
}

func (c *countingEngine) leave() {
	c.mu.Lock()
	c.active--
	c.mu.Unlock()
}

func (c *countingEngine) Recognize(_ context.Context, _ image.Image, _ Hint) (Result, error) {
	c.enter()
	defer c.leave()
	return Result{Text: "VF1", Confidence: 0.9}, nil
}

func (c *countingEngine) RecognizeLines(ctx context.Context, img image.Image, hint Hint) ([]Result, error) {
	r, err := c.Recognize(ctx, img, hint)
	return []Result{r}, err
}

func (c *countingEngine) Close() error { return nil }

func TestSerializeExcludesConcurrentCalls(t *testing.T) {
	inner := &countingEngine{}
	engine := Serialize(inner)
	img := image.NewGray(image.Rect(0, 0, 4, 4))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Recognize(context.Background(), img, Hint{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, inner.calls)
	assert.False(t, inner.overlap, "calls overlapped despite serialization")
}

func TestSerializeDelegatesClose(t *testing.T) {
	inner := &countingEngine{}
	assert.NoError(t, Serialize(inner).Close())
}

// errorEngine always fails, for exercising degradation paths.
type errorEngine struct{}

func (errorEngine) Recognize(context.Context, image.Image, Hint) (Result, error) {
	return Result{}, errors.New("engine exploded")
}

func (errorEngine) RecognizeLines(context.Context, image.Image, Hint) ([]Result, error) {
	return nil, errors.New("engine exploded")
}

func (errorEngine) Close() error { return nil }

func TestSerializePropagatesErrors(t *testing.T) {
	engine := Serialize(errorEngine{})
	_, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)), Hint{})
	assert.Error(t, err)
}
