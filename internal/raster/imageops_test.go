package raster

import (
	"image"
	"image/color"
	"testing"
)

func whiteImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func TestCropFooter(t *testing.T) {
	tests := []struct {
		name       string
		height     int
		wantHeight int
	}{
		{"typical page", 1000, 870},
		{"odd height rounds down", 97, 85},
		{"too small to crop", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := whiteImage(40, tt.height)
			got := CropFooter(img)
			if got.Bounds().Dy() != tt.wantHeight {
				t.Errorf("CropFooter height = %d, want %d", got.Bounds().Dy(), tt.wantHeight)
			}
			if got.Bounds().Dx() != 40 {
				t.Errorf("CropFooter changed width to %d", got.Bounds().Dx())
			}
		})
	}
}

func TestTrimWhitespace(t *testing.T) {
	img := whiteImage(100, 60)
	// Ink at (10,20) and (30,40): bounding box is 10..31 x 20..41.
	img.Set(10, 20, color.NRGBA{R: 0, G: 0, B: 0, A: 0xff})
	img.Set(30, 40, color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xff})

	got := TrimWhitespace(img)
	if got.Bounds().Dx() != 21 || got.Bounds().Dy() != 21 {
		t.Fatalf("trimmed size = %dx%d, want 21x21", got.Bounds().Dx(), got.Bounds().Dy())
	}
	// The corners of the trimmed image are the original ink pixels.
	if c := got.NRGBAAt(0, 0); c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("top-left pixel = %v, want black", c)
	}
	if c := got.NRGBAAt(20, 20); c.R != 0x10 {
		t.Errorf("bottom-right pixel = %v, want near-black", c)
	}
}

func TestTrimWhitespaceAllWhite(t *testing.T) {
	img := whiteImage(32, 16)
	got := TrimWhitespace(img)
	if got.Bounds().Dx() != 32 || got.Bounds().Dy() != 16 {
		t.Errorf("all-white image resized to %dx%d, want unchanged", got.Bounds().Dx(), got.Bounds().Dy())
	}
}

func TestResizeExact(t *testing.T) {
	img := whiteImage(100, 50)
	got := Resize(img, 64, 64)
	if got.Bounds().Dx() != 64 || got.Bounds().Dy() != 64 {
		t.Errorf("resized to %dx%d, want 64x64", got.Bounds().Dx(), got.Bounds().Dy())
	}
}

func TestResizeNoopWhenAlreadySized(t *testing.T) {
	img := whiteImage(64, 64)
	if got := Resize(img, 64, 64); got != img {
		t.Error("resize to the current size should return the same image")
	}
}
