package utils

import (
	"image"
	"math"
)

// GradientField holds per-pixel gradient magnitude and direction.
type GradientField struct {
	Width     int
	Height    int
	Magnitude []float64 // len Width*Height
	Direction []float64 // radians, range (-pi, pi]
}

// SobelGradients computes gradient magnitude and direction with 3x3 Sobel
// kernels. Border pixels use clamped neighbors.
func SobelGradients(gray *image.Gray) GradientField {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	f := GradientField{
		Width:     w,
		Height:    h,
		Magnitude: make([]float64, w*h),
		Direction: make([]float64, w*h),
	}
	at := func(x, y int) float64 {
		return float64(gray.GrayAt(ClampInt(x, 0, w-1), ClampInt(y, 0, h-1)).Y)
	}
	for y := range h {
		for x := range w {
			gx := -at(x-1, y-1) + at(x+1, y-1) +
				-2*at(x-1, y) + 2*at(x+1, y) +
				-at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			idx := y*w + x
			f.Magnitude[idx] = math.Hypot(gx, gy)
			f.Direction[idx] = math.Atan2(gy, gx)
		}
	}
	return f
}

// CannyEdges computes a binary edge map using gradient magnitude,
// non-maximum suppression along the gradient direction, and double-threshold
// hysteresis. lowThresh and highThresh are on the 0-255*4 Sobel magnitude
// scale; the conventional 50/150 pair works well for plate photographs.
func CannyEdges(gray *image.Gray, lowThresh, highThresh float64) []bool {
	f := SobelGradients(gray)
	w, h := f.Width, f.Height
	suppressed := nonMaxSuppress(f)

	// Double threshold
	const (
		weak   = 1
		strong = 2
	)
	marks := make([]uint8, w*h)
	for i, m := range suppressed {
		switch {
		case m >= highThresh:
			marks[i] = strong
		case m >= lowThresh:
			marks[i] = weak
		}
	}

	// Hysteresis: weak pixels survive only when 8-connected to a strong one.
	edges := make([]bool, w*h)
	stack := make([]int, 0, w*h/8)
	for i, m := range marks {
		if m == strong {
			edges[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				ni := ny*w + nx
				if marks[ni] == weak && !edges[ni] {
					edges[ni] = true
					stack = append(stack, ni)
				}
			}
		}
	}
	return edges
}

// nonMaxSuppress thins gradient ridges to single-pixel width by comparing
// each magnitude against its two neighbors along the quantized direction.
func nonMaxSuppress(f GradientField) []float64 {
	w, h := f.Width, f.Height
	out := make([]float64, w*h)
	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return f.Magnitude[y*w+x]
	}
	for y := range h {
		for x := range w {
			idx := y*w + x
			m := f.Magnitude[idx]
			if m == 0 {
				continue
			}
			// Quantize direction into one of four neighbor axes.
			angle := f.Direction[idx]
			if angle < 0 {
				angle += math.Pi
			}
			var m1, m2 float64
			switch {
			case angle < math.Pi/8 || angle >= 7*math.Pi/8:
				m1, m2 = magAt(x-1, y), magAt(x+1, y)
			case angle < 3*math.Pi/8:
				m1, m2 = magAt(x-1, y-1), magAt(x+1, y+1)
			case angle < 5*math.Pi/8:
				m1, m2 = magAt(x, y-1), magAt(x, y+1)
			default:
				m1, m2 = magAt(x+1, y-1), magAt(x-1, y+1)
			}
			if m >= m1 && m >= m2 {
				out[idx] = m
			}
		}
	}
	return out
}
