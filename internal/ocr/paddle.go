package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/MeKo-Tech/platecode/internal/detector"
)

// Paddle talks to a PaddleOCR serving endpoint over HTTP. The endpoint is
// expected to accept {"images": [base64-png]} and answer with per-image
// lists of {text, confidence, text_region} entries.
type Paddle struct {
	endpoint string
	client   *http.Client
}

// NewPaddle returns an engine bound to the configured endpoint. An empty
// endpoint yields ErrEngineUnavailable; the service itself is only
// contacted on the first call.
func NewPaddle(cfg Config) (*Paddle, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("paddle endpoint not configured: %w", ErrEngineUnavailable)
	}
	return &Paddle{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleEntry struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	TextRegion [][]float64 `json:"text_region"`
}

type paddleResponse struct {
	Results [][]paddleEntry `json:"results"`
}

// Recognize aggregates every detected line into one result.
func (p *Paddle) Recognize(ctx context.Context, img image.Image, hint Hint) (Result, error) {
	lines, err := p.RecognizeLines(ctx, img, hint)
	if err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return Result{}, nil
	}
	var (
		texts []string
		confs []float64
		sum   float64
	)
	box := lines[0].Box
	for _, line := range lines {
		texts = append(texts, line.Text)
		confs = append(confs, line.Confidence)
		sum += line.Confidence
		box = unionBox(box, line.Box)
	}
	box.Confidence = sum / float64(len(lines))
	return Result{
		Text:            strings.Join(texts, " "),
		Confidence:      sum / float64(len(lines)),
		Box:             box,
		WordConfidences: confs,
	}, nil
}

// RecognizeLines posts the image and maps each returned entry to a result,
// ordered top to bottom. The hint is ignored; the serving endpoint has no
// segmentation or whitelist controls.
func (p *Paddle) RecognizeLines(ctx context.Context, img image.Image, _ Hint) ([]Result, error) {
	if img == nil {
		return nil, fmt.Errorf("paddle: nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("paddle: encode input: %w", err)
	}
	body, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(buf.Bytes())},
	})
	if err != nil {
		return nil, fmt.Errorf("paddle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("paddle: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paddle: %w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paddle: endpoint returned %s", resp.Status)
	}

	var decoded paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("paddle: decode response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return nil, nil
	}

	var results []Result
	for _, entry := range decoded.Results[0] {
		if entry.Confidence <= 0 || strings.TrimSpace(entry.Text) == "" {
			continue
		}
		box := regionToBox(entry.TextRegion)
		box.Confidence = entry.Confidence
		results = append(results, Result{
			Text:            strings.TrimSpace(entry.Text),
			Confidence:      entry.Confidence,
			Box:             box,
			WordConfidences: []float64{entry.Confidence},
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Box.Y < results[j].Box.Y })
	return results, nil
}

func (p *Paddle) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// regionToBox converts a quadrilateral of [x,y] corner points to its
// axis-aligned bounding box.
func regionToBox(region [][]float64) detector.BoundingBox {
	var minX, minY, maxX, maxY float64
	seeded := false
	for _, pt := range region {
		// Endpoint JSON is untrusted; points may be truncated.
		if len(pt) < 2 {
			continue
		}
		if !seeded {
			minX, maxX = pt[0], pt[0]
			minY, maxY = pt[1], pt[1]
			seeded = true
			continue
		}
		if pt[0] < minX {
			minX = pt[0]
		}
		if pt[0] > maxX {
			maxX = pt[0]
		}
		if pt[1] < minY {
			minY = pt[1]
		}
		if pt[1] > maxY {
			maxY = pt[1]
		}
	}
	return detector.BoundingBox{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
