package preprocess

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/MeKo-Tech/platecode/internal/utils"
	"github.com/disintegration/imaging"
)

// Deskew estimates the dominant text-line skew from straight edges and
// rotates the image about its center to cancel it. Images whose median line
// angle is within SkewThresholdRad of horizontal are returned unchanged:
// tiny rotations cost interpolation blur for no segmentation benefit.
func (p *Preprocessor) Deskew(img image.Image) image.Image {
	gray := utils.ToGray(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w < 8 || h < 8 {
		return img
	}

	edges := utils.CannyEdges(gray, 50, 150)
	angles := houghLineAngles(edges, w, h, p.cfg.HoughVoteThresh)
	if len(angles) == 0 {
		return img
	}

	sort.Float64s(angles)
	median := angles[len(angles)/2]
	if math.Abs(median) <= p.cfg.SkewThresholdRad {
		return img
	}

	// imaging rotates counter-clockwise for positive degrees; cancel the
	// measured skew. Bicubic-quality resampling keeps glyph edges usable.
	deg := -median * 180 / math.Pi
	return imaging.Rotate(img, deg, imageBackground(img))
}

// EstimateSkew returns the median line angle in radians (0 = horizontal),
// or false when no confident lines were found.
func (p *Preprocessor) EstimateSkew(img image.Image) (float64, bool) {
	gray := utils.ToGray(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w < 8 || h < 8 {
		return 0, false
	}
	edges := utils.CannyEdges(gray, 50, 150)
	angles := houghLineAngles(edges, w, h, p.cfg.HoughVoteThresh)
	if len(angles) == 0 {
		return 0, false
	}
	sort.Float64s(angles)
	return angles[len(angles)/2], true
}

// houghLineAngles runs a standard Hough transform over the edge map and
// returns one angle per accumulator cell that collected at least voteThresh
// votes. The reported angle is theta - pi/2, i.e. the line's deviation from
// horizontal.
func houghLineAngles(edges []bool, w, h, voteThresh int) []float64 {
	const thetaBins = 180
	maxRho := int(math.Hypot(float64(w), float64(h))) + 1
	// rho in [-maxRho, maxRho] quantized to integers
	acc := make([]int, thetaBins*(2*maxRho+1))

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
				acc[t*(2*maxRho+1)+(rho+maxRho)]++
			}
		}
	}

	var angles []float64
	for t := range thetaBins {
		theta := float64(t) * math.Pi / float64(thetaBins)
		row := acc[t*(2*maxRho+1) : (t+1)*(2*maxRho+1)]
		for _, votes := range row {
			if votes >= voteThresh {
				angles = append(angles, theta-math.Pi/2)
			}
		}
	}
	return angles
}

// imageBackground picks the rotation fill color: the image's corner mean,
// which for plate photographs approximates the plate background.
func imageBackground(img image.Image) color.NRGBA {
	b := img.Bounds()
	corners := []image.Point{
		b.Min,
		{b.Max.X - 1, b.Min.Y},
		{b.Min.X, b.Max.Y - 1},
		{b.Max.X - 1, b.Max.Y - 1},
	}
	var r, g, bl uint32
	for _, pt := range corners {
		cr, cg, cb, _ := img.At(pt.X, pt.Y).RGBA()
		r += cr >> 8
		g += cg >> 8
		bl += cb >> 8
	}
	n := uint32(len(corners))
	return color.NRGBA{uint8(r / n), uint8(g / n), uint8(bl / n), 255}
}
