// Package raster converts compiled PDF bytes into a pixel image of the
// first page, with optional footer/whitespace cropping and exact resizing.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

// DefaultDPI is the rendering resolution passed to the page rasterizer.
const DefaultDPI = 150

// footerFraction is the share of image height removed from the bottom when
// cropping; it covers the pagination footer of the default document class.
const footerFraction = 0.13

// Options controls how a page is turned into an image.
type Options struct {
	// Crop removes the bottom footer band, then trims the whitespace
	// border down to the bounding box of the page content.
	Crop bool
	// ResizeWidth and ResizeHeight, when both positive, resize the
	// (possibly cropped) image to exactly that resolution, without
	// preserving aspect ratio.
	ResizeWidth  int
	ResizeHeight int
}

// Rasterizer renders the first page of a PDF using an external page
// rasterizer (pdftoppm from poppler-utils).
type Rasterizer struct {
	command string
	dpi     int
	timeout time.Duration
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithDPI sets the rendering resolution.
func WithDPI(dpi int) Option {
	return func(r *Rasterizer) { r.dpi = dpi }
}

// WithCommand overrides the rasterizer executable.
func WithCommand(cmd string) Option {
	return func(r *Rasterizer) { r.command = cmd }
}

// WithTimeout sets the rasterization timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Rasterizer) { r.timeout = d }
}

// New creates a Rasterizer with default settings.
func New(opts ...Option) *Rasterizer {
	r := &Rasterizer{
		command: "pdftoppm",
		dpi:     DefaultDPI,
		timeout: time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render extracts the first page of pdf as an image and applies the
// requested crop and resize. It fails with types.ErrRender when the PDF
// holds no pages or the page cannot be rasterized.
func (r *Rasterizer) Render(ctx context.Context, pdfBytes []byte, opts Options) (*types.RasterImage, error) {
	pages, err := pageCount(pdfBytes)
	if err != nil {
		return nil, types.NewAppError(types.ErrRender, "failed to read compiled PDF", err)
	}
	if pages < 1 {
		return nil, types.NewAppError(types.ErrRender, "compiled PDF contains no pages", nil)
	}

	img, err := r.firstPageImage(ctx, pdfBytes)
	if err != nil {
		return nil, err
	}

	if opts.Crop {
		img = CropFooter(img)
		img = TrimWhitespace(img)
	}

	if opts.ResizeWidth > 0 && opts.ResizeHeight > 0 {
		img = Resize(img, opts.ResizeWidth, opts.ResizeHeight)
	}

	b := img.Bounds()
	return &types.RasterImage{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// pageCount determines the number of pages. pdfcpu is tried first;
// ledongthuc/pdf serves as a fallback for PDFs pdfcpu refuses to open.
func pageCount(pdfBytes []byte) (int, error) {
	if n, err := api.PageCount(bytes.NewReader(pdfBytes), nil); err == nil && n > 0 {
		return n, nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}

// firstPageImage rasterizes page one to PNG via the external command and
// decodes it.
func (r *Rasterizer) firstPageImage(ctx context.Context, pdfBytes []byte) (*image.NRGBA, error) {
	if _, err := exec.LookPath(r.command); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrEnvironment,
			fmt.Sprintf("page rasterizer not found: %s", r.command),
			"install poppler-utils and make sure it is available in your PATH", err)
	}

	jobDir, err := os.MkdirTemp("", "tex2img-raster-")
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to create raster directory", err)
	}
	defer os.RemoveAll(jobDir)

	pdfPath := filepath.Join(jobDir, "page.pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0644); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to write PDF", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	outPrefix := filepath.Join(jobDir, "page")
	cmd := exec.CommandContext(ctx, r.command,
		"-png",
		"-r", fmt.Sprintf("%d", r.dpi),
		"-f", "1", "-l", "1",
		"-singlefile",
		pdfPath, outPrefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Error("page rasterization failed", err,
			logger.String("stderr", stderr.String()))
		return nil, types.NewAppErrorWithDetails(types.ErrRender,
			"PDF to image conversion failed", stderr.String(), err)
	}

	data, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, types.NewAppError(types.ErrRender, "rasterizer produced no page image", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, types.NewAppError(types.ErrRender, "failed to decode page image", err)
	}

	return toNRGBA(decoded), nil
}
