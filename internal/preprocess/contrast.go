package preprocess

import (
	"image"
	"image/color"

	"github.com/MeKo-Tech/platecode/internal/utils"
)

// EnhanceContrast applies contrast-limited adaptive histogram equalization
// (CLAHE) to the luminance channel only. Chrominance is carried through
// untouched, so uneven plate lighting is flattened without shifting hue.
func (p *Preprocessor) EnhanceContrast(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	luma := extractLuma(img)
	equalized := claheGray(luma, w, h, p.cfg.TileGrid, p.cfg.ClipLimit)

	if utils.IsGrayscale(img) {
		out := image.NewGray(image.Rect(0, 0, w, h))
		copy(out.Pix, equalized)
		return out
	}
	return replaceLuma(img, equalized)
}

// extractLuma returns the per-pixel luminance plane (JFIF Y).
func extractLuma(img image.Image) []uint8 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			yy, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			out[y*w+x] = yy
		}
	}
	return out
}

// replaceLuma rebuilds a color image with a new luminance plane, keeping each
// pixel's original chrominance.
func replaceLuma(img image.Image, luma []uint8) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			_, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			nr, ng, nb := color.YCbCrToRGB(luma[y*w+x], cb, cr)
			out.SetNRGBA(x, y, color.NRGBA{nr, ng, nb, uint8(a >> 8)})
		}
	}
	return out
}

// claheGray equalizes a gray plane with per-tile clipped histograms and
// bilinear interpolation between neighboring tile mappings.
func claheGray(src []uint8, w, h, grid int, clipLimit float64) []uint8 {
	if grid < 1 {
		grid = 1
	}
	tileW := (w + grid - 1) / grid
	tileH := (h + grid - 1) / grid
	if tileW == 0 || tileH == 0 {
		return src
	}

	// Build one clipped-CDF lookup table per tile.
	luts := make([][256]uint8, grid*grid)
	for ty := range grid {
		for tx := range grid {
			x0, y0 := tx*tileW, ty*tileH
			x1 := utils.ClampInt(x0+tileW, 0, w)
			y1 := utils.ClampInt(y0+tileH, 0, h)
			if x0 >= x1 || y0 >= y1 {
				for i := range 256 {
					luts[ty*grid+tx][i] = uint8(i)
				}
				continue
			}
			luts[ty*grid+tx] = tileLUT(src, w, x0, y0, x1, y1, clipLimit)
		}
	}

	// Map each pixel through the four surrounding tile LUTs.
	out := make([]uint8, len(src))
	for y := range h {
		fy := (float64(y)-float64(tileH)/2 + 0.5) / float64(tileH)
		ty0 := int(fy)
		if fy < 0 {
			ty0 = -1
		}
		wy := fy - float64(ty0)
		for x := range w {
			fx := (float64(x)-float64(tileW)/2 + 0.5) / float64(tileW)
			tx0 := int(fx)
			if fx < 0 {
				tx0 = -1
			}
			wx := fx - float64(tx0)

			v := src[y*w+x]
			v00 := float64(lutAt(luts, grid, tx0, ty0, v))
			v10 := float64(lutAt(luts, grid, tx0+1, ty0, v))
			v01 := float64(lutAt(luts, grid, tx0, ty0+1, v))
			v11 := float64(lutAt(luts, grid, tx0+1, ty0+1, v))
			top := v00*(1-wx) + v10*wx
			bot := v01*(1-wx) + v11*wx
			out[y*w+x] = utils.ClampUint8(top*(1-wy) + bot*wy)
		}
	}
	return out
}

func lutAt(luts [][256]uint8, grid, tx, ty int, v uint8) uint8 {
	tx = utils.ClampInt(tx, 0, grid-1)
	ty = utils.ClampInt(ty, 0, grid-1)
	return luts[ty*grid+tx][v]
}

// tileLUT builds the clipped-histogram equalization mapping for one tile.
// Excess above clipLimit times the mean bin height is redistributed evenly.
func tileLUT(src []uint8, stride, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	count := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src[y*stride+x]]++
			count++
		}
	}

	clip := int(clipLimit * float64(count) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := range 256 {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	share := excess / 256
	for i := range 256 {
		hist[i] += share
	}

	var lut [256]uint8
	cum := 0
	for i := range 256 {
		cum += hist[i]
		lut[i] = utils.ClampUint8(float64(cum) * 255 / float64(count))
	}
	return lut
}
