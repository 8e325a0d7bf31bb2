// Package tex2img converts LaTeX markup fragments into rasterized images of
// their first page, tolerating malformed input: fragments are normalized
// into complete documents, compiler failures are classified, and a bounded
// number of automatic repairs is attempted before giving up.
package tex2img

import (
	"context"
	"time"

	"tex2img/internal/compiler"
	"tex2img/internal/raster"
	"tex2img/internal/repair"
	"tex2img/internal/types"
)

// Options configures a conversion.
type Options struct {
	// AssetsDir is the search path for assets referenced by the document.
	AssetsDir string
	// Crop removes the pagination footer and the whitespace border.
	Crop bool
	// ResizeWidth and ResizeHeight, when both positive, force the output
	// to exactly that resolution.
	ResizeWidth  int
	ResizeHeight int

	// Compiler is the LaTeX command to run; empty selects pdflatex.
	Compiler string
	// CompileTimeout bounds one compiler invocation; zero selects the default.
	CompileTimeout time.Duration
	// DPI is the rendering resolution; zero selects the default.
	DPI int
}

// Convert compiles fragment and returns the first page as an image. The
// returned error, when non-nil, is a *types.AppError whose Code identifies
// the terminal condition (environment, fatal source defect, repair
// exhaustion, unclassified error, or rendering failure).
func Convert(ctx context.Context, fragment string, opts Options) (*types.RasterImage, error) {
	compilerOpts := []compiler.Option{}
	if opts.CompileTimeout > 0 {
		compilerOpts = append(compilerOpts, compiler.WithTimeout(opts.CompileTimeout))
	}
	rasterOpts := []raster.Option{}
	if opts.DPI > 0 {
		rasterOpts = append(rasterOpts, raster.WithDPI(opts.DPI))
	}

	engine := repair.NewEngine(
		compiler.New(opts.Compiler, compilerOpts...),
		raster.New(rasterOpts...),
	)

	return engine.Run(ctx, fragment, repair.Options{
		AssetsDir:    opts.AssetsDir,
		Crop:         opts.Crop,
		ResizeWidth:  opts.ResizeWidth,
		ResizeHeight: opts.ResizeHeight,
	})
}
