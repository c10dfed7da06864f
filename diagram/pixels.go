package diagram

import (
	"image"
	"image/color"
	"strings"
)

// rawPixelsToImage interprets decompressed FlateDecode pixel data as a gray
// or RGB image. Data produced with a PNG predictor carries one filter-type
// byte per row; that case is detected by size and unfiltered first.
func rawPixelsToImage(data []byte, width, height int, colorSpace string) image.Image {
	if width <= 0 || height <= 0 {
		return nil
	}

	bpp := 3
	if strings.Contains(colorSpace, "Gray") {
		bpp = 1
	}
	rowBytes := width * bpp

	if len(data) == (rowBytes+1)*height && len(data) != rowBytes*height {
		data = unfilterRows(data, rowBytes, height, bpp)
		if data == nil {
			return nil
		}
	}
	if len(data) < rowBytes*height {
		return nil
	}

	if bpp == 1 {
		img := image.NewGray(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			copy(img.Pix[y*img.Stride:], data[y*width:y*width+width])
		}
		return img
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := y * rowBytes
		dst := y * img.Stride
		for x := 0; x < width; x++ {
			img.Pix[dst] = data[src]
			img.Pix[dst+1] = data[src+1]
			img.Pix[dst+2] = data[src+2]
			img.Pix[dst+3] = 255
			src += 3
			dst += 4
		}
	}
	return img
}

// unfilterRows reverses the per-row PNG filters (None, Sub, Up, Average,
// Paeth) and returns the raw pixel bytes without the filter-type prefixes.
func unfilterRows(data []byte, rowBytes, height, bpp int) []byte {
	stride := rowBytes + 1
	out := make([]byte, rowBytes*height)

	for y := 0; y < height; y++ {
		ft := data[y*stride]
		row := data[y*stride+1 : y*stride+stride]
		dst := out[y*rowBytes : (y+1)*rowBytes]
		var prev []byte
		if y > 0 {
			prev = out[(y-1)*rowBytes : y*rowBytes]
		}

		switch ft {
		case 0:
			copy(dst, row)
		case 1:
			for i := range dst {
				var left byte
				if i >= bpp {
					left = dst[i-bpp]
				}
				dst[i] = row[i] + left
			}
		case 2:
			for i := range dst {
				var up byte
				if prev != nil {
					up = prev[i]
				}
				dst[i] = row[i] + up
			}
		case 3:
			for i := range dst {
				var left, up int
				if i >= bpp {
					left = int(dst[i-bpp])
				}
				if prev != nil {
					up = int(prev[i])
				}
				dst[i] = row[i] + byte((left+up)/2)
			}
		case 4:
			for i := range dst {
				var left, up, upLeft byte
				if i >= bpp {
					left = dst[i-bpp]
				}
				if prev != nil {
					up = prev[i]
					if i >= bpp {
						upLeft = prev[i-bpp]
					}
				}
				dst[i] = row[i] + paeth(left, up, upLeft)
			}
		default:
			return nil
		}
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// grayVariance computes the variance of the image's gray values. A nearly
// uniform image (plain fill, white box) has variance close to zero.
func grayVariance(img image.Image) float64 {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0
	}

	var sum, sumSq float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			sum += g
			sumSq += g * g
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}
