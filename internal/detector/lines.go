package detector

import (
	"image"
	"math"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// lineSegment is a detected straight segment with integer endpoints.
type lineSegment struct {
	x1, y1, x2, y2 int
}

// DetectByLines finds regions from straight-edge structure: Canny edges,
// Hough-style segment extraction, then greedy single-pass clustering of
// segments whose corresponding endpoints lie within GroupTolerance pixels.
// Each cluster of at least two segments becomes one box spanning all member
// endpoints. The greedy grouping is deliberately not a globally optimal
// clustering; it is a single pass in segment order, which is cheap and
// stable for the handful of segments a plate image produces.
func (d *Detector) DetectByLines(img image.Image) []BoundingBox {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	gray := utils.ToGray(img)
	edges := utils.CannyEdges(gray, d.cfg.CannyLow, d.cfg.CannyHigh)
	segments := extractSegments(edges, w, h, d.cfg.LineVoteThresh, d.cfg.MinLineLength, d.cfg.MaxLineGap)
	if len(segments) == 0 {
		return nil
	}

	var boxes []BoundingBox
	for _, group := range groupSegments(segments, float64(d.cfg.GroupTolerance)) {
		if len(group) < 2 {
			continue
		}
		box := segmentsBoundingBox(group)
		box.Label = "lines"
		if d.isValidROI(box, w, h) {
			boxes = append(boxes, box)
		}
	}
	return boxes
}

// extractSegments walks each confident Hough line across the edge map and
// emits maximal runs of edge pixels, tolerating gaps up to maxGap and
// keeping runs of at least minLen pixels.
func extractSegments(edges []bool, w, h, voteThresh, minLen, maxGap int) []lineSegment {
	const thetaBins = 180
	maxRho := int(math.Hypot(float64(w), float64(h))) + 1
	stride := 2*maxRho + 1
	acc := make([]int, thetaBins*stride)

	sinT := make([]float64, thetaBins)
	cosT := make([]float64, thetaBins)
	for t := range thetaBins {
		theta := float64(t) * math.Pi / float64(thetaBins)
		sinT[t] = math.Sin(theta)
		cosT[t] = math.Cos(theta)
	}
	for y := range h {
		for x := range w {
			if !edges[y*w+x] {
				continue
			}
			for t := range thetaBins {
				rho := int(math.Round(float64(x)*cosT[t] + float64(y)*sinT[t]))
				acc[t*stride+(rho+maxRho)]++
			}
		}
	}

	var segments []lineSegment
	for t := range thetaBins {
		for r := range stride {
			if acc[t*stride+r] < voteThresh {
				continue
			}
			rho := float64(r - maxRho)
			segments = append(segments,
				walkLine(edges, w, h, cosT[t], sinT[t], rho, minLen, maxGap)...)
		}
	}
	return segments
}

// walkLine samples the line (cos,sin,rho) across the image and collects runs
// of edge pixels into segments.
func walkLine(edges []bool, w, h int, cosT, sinT, rho float64, minLen, maxGap int) []lineSegment {
	// Parameterize by the dominant axis to get one sample per pixel.
	var pts []image.Point
	if math.Abs(sinT) > math.Abs(cosT) {
		// Mostly horizontal line: y = (rho - x*cos) / sin
		for x := range w {
			y := int(math.Round((rho - float64(x)*cosT) / sinT))
			if y >= 0 && y < h {
				pts = append(pts, image.Pt(x, y))
			}
		}
	} else {
		for y := range h {
			x := int(math.Round((rho - float64(y)*sinT) / cosT))
			if x >= 0 && x < w {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}

	var segments []lineSegment
	runStart, lastHit, gap := -1, -1, 0
	flush := func() {
		if runStart >= 0 && lastHit >= runStart {
			a, b := pts[runStart], pts[lastHit]
			if segmentLength(a, b) >= float64(minLen) {
				segments = append(segments, lineSegment{a.X, a.Y, b.X, b.Y})
			}
		}
		runStart, lastHit = -1, -1
	}
	for i, p := range pts {
		if edges[p.Y*w+p.X] {
			if runStart < 0 {
				runStart = i
			}
			lastHit = i
			gap = 0
			continue
		}
		if runStart >= 0 {
			gap++
			if gap > maxGap {
				flush()
				gap = 0
			}
		}
	}
	flush()
	return segments
}

func segmentLength(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// groupSegments clusters segments greedily: each ungrouped segment seeds a
// group and absorbs every later segment whose endpoints both lie within
// tolerance of the seed's endpoints. Single pass, no merging of groups.
func groupSegments(segments []lineSegment, tolerance float64) [][]lineSegment {
	used := make([]bool, len(segments))
	var groups [][]lineSegment
	for i, seed := range segments {
		if used[i] {
			continue
		}
		group := []lineSegment{seed}
		used[i] = true
		for j := i + 1; j < len(segments); j++ {
			if used[j] {
				continue
			}
			if segmentsClose(seed, segments[j], tolerance) {
				group = append(group, segments[j])
				used[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func segmentsClose(a, b lineSegment, tolerance float64) bool {
	d1 := math.Hypot(float64(a.x1-b.x1), float64(a.y1-b.y1))
	d2 := math.Hypot(float64(a.x2-b.x2), float64(a.y2-b.y2))
	return d1 < tolerance && d2 < tolerance
}

func segmentsBoundingBox(group []lineSegment) BoundingBox {
	minX, minY := group[0].x1, group[0].y1
	maxX, maxY := minX, minY
	update := func(x, y int) {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	for _, s := range group {
		update(s.x1, s.y1)
		update(s.x2, s.y2)
	}
	return BoundingBox{
		X:          minX,
		Y:          minY,
		Width:      maxX - minX + 1,
		Height:     maxY - minY + 1,
		Confidence: 1.0,
	}
}
