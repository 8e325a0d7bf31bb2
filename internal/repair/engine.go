package repair

import (
	"context"
	"fmt"

	"tex2img/internal/logger"
	"tex2img/internal/raster"
	"tex2img/internal/types"
)

// DefaultBudget is the number of repair-and-recompile cycles permitted
// before giving up. With a budget of 3 the compiler is invoked at most
// 4 times per document.
const DefaultBudget = 3

// Compiler compiles a LaTeX source string, resolving relative assets
// against assetsDir. A failed compilation is reported in the result, not
// as an error.
type Compiler interface {
	Compile(ctx context.Context, source string, assetsDir string) (*types.CompileResult, error)
}

// Renderer extracts the first page of a compiled PDF as an image.
type Renderer interface {
	Render(ctx context.Context, pdf []byte, opts raster.Options) (*types.RasterImage, error)
}

// Options controls a single pipeline invocation.
type Options struct {
	// AssetsDir is the search path for assets referenced by the document.
	AssetsDir string
	// Crop removes the pagination footer and the whitespace border.
	Crop bool
	// ResizeWidth and ResizeHeight, when both positive, force the output
	// image to exactly that resolution.
	ResizeWidth  int
	ResizeHeight int
}

// Engine is the public entry point of the compile-and-repair pipeline.
// One Engine may serve concurrent invocations: all per-invocation state
// (document, budget, applied-fix set) lives on the Run stack.
type Engine struct {
	compiler Compiler
	renderer Renderer
	budget   int
}

// NewEngine creates an Engine with the default repair budget.
func NewEngine(c Compiler, r Renderer) *Engine {
	return &Engine{compiler: c, renderer: r, budget: DefaultBudget}
}

// Budget returns the configured repair budget.
func (e *Engine) Budget() int {
	return e.budget
}

// Run normalizes fragment, then compiles it, repairing classified fixable
// failures until compilation succeeds or the budget is exhausted. On success
// the first page is rasterized and returned. Every failure is terminal and
// typed: ErrEnvironment, ErrFatalSource, ErrUnclassified, ErrRepairExhausted
// or ErrRender.
func (e *Engine) Run(ctx context.Context, fragment string, opts Options) (*types.RasterImage, error) {
	doc := Normalize(fragment)
	budget := e.budget
	firstRepair := true
	applied := make(map[FixKind]bool)

	for attempt := 0; ; attempt++ {
		logger.Info("compiling document",
			logger.Int("attempt", attempt),
			logger.Int("budgetLeft", budget))

		result, err := e.compiler.Compile(ctx, doc, opts.AssetsDir)
		if err != nil {
			// Toolchain missing or invocation failure; the repair loop
			// never sees these.
			return nil, err
		}

		if result.Success {
			img, err := e.renderer.Render(ctx, result.PDF, raster.Options{
				Crop:         opts.Crop,
				ResizeWidth:  opts.ResizeWidth,
				ResizeHeight: opts.ResizeHeight,
			})
			if err != nil {
				return nil, err
			}
			logger.Info("document rendered",
				logger.Int("attempt", attempt),
				logger.Int("width", img.Width),
				logger.Int("height", img.Height))
			return img, nil
		}

		class := Classify(result.ErrorMsg)
		logger.Info("compilation failed",
			logger.Int("attempt", attempt),
			logger.String("class", class.Kind.String()),
			logger.String("environment", class.Name))

		switch class.Kind {
		case FatalSyntax, FatalConflict:
			return nil, types.NewAppErrorWithDetails(types.ErrFatalSource,
				"markup contains a defect that cannot be auto-repaired",
				result.ErrorMsg, nil)
		case Unclassified:
			return nil, types.NewAppErrorWithDetails(types.ErrUnclassified,
				"no known repair for compiler error", result.ErrorMsg, nil)
		}

		if budget == 0 {
			return nil, types.NewAppErrorWithDetails(types.ErrRepairExhausted,
				fmt.Sprintf("error still %s after %d repair attempts", class.Kind, e.budget),
				result.ErrorMsg, nil)
		}

		if class.Kind == FixableMathMode && applied[FixMathWrap] {
			// Wrapping an already wrapped document corrupts it; the first
			// wrap evidently did not resolve the failure.
			return nil, types.NewAppErrorWithDetails(types.ErrRepairExhausted,
				"math-mode wrap already applied and the error persists",
				result.ErrorMsg, nil)
		}

		fixed, kind, err := Repair(doc, class, firstRepair)
		if err != nil {
			return nil, err
		}

		applied[kind] = true
		firstRepair = false
		doc = fixed
		budget--
	}
}
