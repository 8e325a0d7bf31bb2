package raster

import (
	"image"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"
)

// toNRGBA copies an arbitrary decoded image into NRGBA so crop and trim can
// address pixels directly.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(dst, dst.Bounds(), src, b.Min, stddraw.Src)
	return dst
}

// CropFooter removes the bottom 13% of the image, which holds the page
// number footer rendered by the default document class.
func CropFooter(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	h := b.Dy()
	cut := int(float64(h) * footerFraction)
	if cut <= 0 || cut >= h {
		return img
	}
	return crop(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y-cut))
}

// TrimWhitespace crops the image to the bounding box of its non-white
// pixels, the equivalent of inverting the image and taking the bounding box
// of what remains. An all-white image is returned unchanged.
func TrimWhitespace(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	found := false

	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			i := (x - b.Min.X) * 4
			if row[i] != 0xff || row[i+1] != 0xff || row[i+2] != 0xff {
				found = true
				if x < minX {
					minX = x
				}
				if x >= maxX {
					maxX = x + 1
				}
				if y < minY {
					minY = y
				}
				if y >= maxY {
					maxY = y + 1
				}
			}
		}
	}

	if !found {
		return img
	}
	return crop(img, image.Rect(minX, minY, maxX, maxY))
}

// Resize scales the image to exactly width x height, without preserving the
// aspect ratio.
func Resize(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// crop copies the given rectangle into a fresh image anchored at the origin.
func crop(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	stddraw.Draw(dst, dst.Bounds(), img, r.Min, stddraw.Src)
	return dst
}
