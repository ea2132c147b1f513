package preprocess

import (
	"image"
	"image/color"
)

var grayWhite = color.Gray{Y: 255}

// Close runs dilation then erosion with a kernel x kernel rectangular
// structuring element. On binarized glyphs it bridges the small stroke gaps
// the thresholding opens without fusing adjacent characters, provided the
// kernel stays small (2 by default).
func Close(binary *image.Gray, kernel int) *image.Gray {
	return Erode(Dilate(binary, kernel), kernel)
}

// Open runs erosion then dilation, removing isolated foreground specks.
func Open(binary *image.Gray, kernel int) *image.Gray {
	return Dilate(Erode(binary, kernel), kernel)
}

// Dilate sets each pixel to the maximum over its kernel x kernel
// neighborhood (anchored top-left, matching a 2x2 element's usual anchor).
func Dilate(binary *image.Gray, kernel int) *image.Gray {
	return morph(binary, kernel, true)
}

// Erode sets each pixel to the minimum over its kernel x kernel neighborhood.
func Erode(binary *image.Gray, kernel int) *image.Gray {
	return morph(binary, kernel, false)
}

func morph(binary *image.Gray, kernel int, dilate bool) *image.Gray {
	w, h := binary.Bounds().Dx(), binary.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if kernel < 1 {
		kernel = 1
	}
	for y := range h {
		for x := range w {
			var best uint8
			if !dilate {
				best = 255
			}
			for dy := range kernel {
				for dx := range kernel {
					nx, ny := x+dx, y+dy
					var v uint8
					if nx < w && ny < h {
						v = binary.GrayAt(nx, ny).Y
					} else if !dilate {
						// Outside pixels count as background for dilation
						// only; erosion treats the border as foreground so
						// shapes touching the edge are not eaten away.
						v = 255
					}
					if dilate {
						if v > best {
							best = v
						}
					} else if v < best {
						best = v
					}
				}
			}
			out.Pix[y*w+x] = best
		}
	}
	return out
}
