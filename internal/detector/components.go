package detector

import "image"

// compStats carries per-component pixel count and axis-aligned extent.
type compStats struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

func (st compStats) boundingBox() BoundingBox {
	return BoundingBox{
		X:          st.minX,
		Y:          st.minY,
		Width:      st.maxX - st.minX + 1,
		Height:     st.maxY - st.minY + 1,
		Confidence: 1.0,
	}
}

// connectedComponents labels 4-connected foreground components of a binary
// image and returns their stats. Foreground is any pixel > 0.
func connectedComponents(binary *image.Gray) []compStats {
	w, h := binary.Bounds().Dx(), binary.Bounds().Dy()
	return connectedComponentsMask(maskFromGray(binary), w, h)
}

func maskFromGray(binary *image.Gray) []bool {
	w, h := binary.Bounds().Dx(), binary.Bounds().Dy()
	mask := make([]bool, w*h)
	for i, v := range binary.Pix[:w*h] {
		if v > 0 {
			mask[i] = true
		}
	}
	return mask
}

// connectedComponentsMask performs iterative BFS labeling over a boolean
// mask. Iterative rather than recursive so degenerate blobs the size of the
// image cannot blow the stack.
func connectedComponentsMask(mask []bool, w, h int) []compStats {
	visited := make([]bool, w*h)
	var comps []compStats
	queue := make([]int, 0, 256)

	for y := range h {
		for x := range w {
			start := y*w + x
			if !mask[start] || visited[start] {
				continue
			}

			st := compStats{minX: x, minY: y, maxX: x, maxY: y}
			queue = queue[:0]
			queue = append(queue, start)
			visited[start] = true

			for len(queue) > 0 {
				ci := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				cx, cy := ci%w, ci/w

				st.count++
				if cx < st.minX {
					st.minX = cx
				}
				if cx > st.maxX {
					st.maxX = cx
				}
				if cy < st.minY {
					st.minY = cy
				}
				if cy > st.maxY {
					st.maxY = cy
				}

				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if mask[ni] && !visited[ni] {
						visited[ni] = true
						queue = append(queue, ni)
					}
				}
			}
			comps = append(comps, st)
		}
	}
	return comps
}
