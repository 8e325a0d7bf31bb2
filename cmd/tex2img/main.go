// Command tex2img compiles a LaTeX fragment to a PNG of its first page,
// repairing common compilation errors along the way.
//
// Usage:
//
//	tex2img [flags] input.tex
//	tex2img [flags] --prompt "a commutative diagram of ..."
package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"tex2img/internal/compiler"
	"tex2img/internal/config"
	"tex2img/internal/encoding"
	"tex2img/internal/logger"
	"tex2img/internal/model"
	"tex2img/internal/raster"
	"tex2img/internal/repair"
	"tex2img/internal/results"
	"tex2img/internal/types"
)

// Exit codes: 0=success, 1=general, 2=usage, then one code per terminal
// pipeline condition.
const (
	exitSuccess      = 0
	exitGeneral      = 1
	exitUsage        = 2
	exitEnvironment  = 3
	exitFatalSource  = 4
	exitExhausted    = 5
	exitUnclassified = 6
	exitRender       = 7
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("tex2img", flag.ContinueOnError)
	var (
		assetsDir  = flags.String("assets", "", "directory searched for assets referenced by the document")
		crop       = flags.Bool("crop", false, "remove the pagination footer and trim the whitespace border")
		resize     = flags.String("resize", "", "resize the output to WxH, e.g. 512x512")
		outPath    = flags.StringP("out", "o", "", "output PNG path (default: input name with .png)")
		configPath = flags.String("config", "", "configuration file path")
		prompt     = flags.String("prompt", "", "generate the input markup from this prompt instead of a file")
		resultsDir = flags.String("results-dir", "", "directory for run records and summaries")
		noRecord   = flags.Bool("no-record", false, "do not write a run record")
		verbose    = flags.BoolP("verbose", "v", false, "enable debug logging")
	)
	flags.SortFlags = false

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitSuccess
		}
		return exitUsage
	}

	logCfg := logger.DefaultConfig()
	if *verbose {
		logCfg.Level = logger.LevelDebug
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		return exitGeneral
	}
	defer logger.Close()

	cfgMgr, err := config.NewManager(*configPath)
	if err != nil {
		return fail(err)
	}
	if err := cfgMgr.Load(); err != nil {
		return fail(err)
	}
	cfg := cfgMgr.Get()

	// Resolve the input fragment.
	var input, inputLabel string
	switch {
	case *prompt != "" && flags.NArg() > 0:
		fmt.Fprintln(os.Stderr, "provide either an input file or --prompt, not both")
		return exitUsage
	case *prompt != "":
		client := model.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.CacheDir)
		input, err = client.Generate(context.Background(), *prompt)
		if err != nil {
			return fail(err)
		}
		inputLabel = "prompt:" + *prompt
	case flags.NArg() == 1:
		path := flags.Arg(0)
		input, err = encoding.ReadFile(path)
		if err != nil {
			return fail(err)
		}
		inputLabel = path
	default:
		fmt.Fprintln(os.Stderr, "usage: tex2img [flags] input.tex")
		flags.PrintDefaults()
		return exitUsage
	}

	opts := repair.Options{AssetsDir: *assetsDir, Crop: *crop}
	if *resize != "" {
		w, h, err := parseResolution(*resize)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
		opts.ResizeWidth, opts.ResizeHeight = w, h
	}

	out := *outPath
	if out == "" {
		if flags.NArg() == 1 {
			base := flags.Arg(0)
			out = strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
		} else {
			out = "tex2img.png"
		}
	}

	engine := repair.NewEngine(
		compiler.New(cfg.Compiler,
			compiler.WithTimeout(cfg.CompileTimeoutDuration()),
			compiler.WithWorkDir(cfg.WorkDirectory)),
		raster.New(raster.WithDPI(cfg.RenderDPI)),
	)

	start := time.Now()
	img, runErr := engine.Run(context.Background(), input, opts)
	elapsed := time.Since(start)

	if !*noRecord {
		recordRun(*resultsDir, cfg, inputLabel, out, img, runErr, elapsed)
	}

	if runErr != nil {
		return fail(runErr)
	}

	if err := writePNG(out, img); err != nil {
		return fail(err)
	}

	fmt.Printf("%s (%dx%d)\n", out, img.Width, img.Height)
	return exitSuccess
}

// recordRun persists the outcome; record failures only warn.
func recordRun(resultsDir string, cfg *config.Config, inputLabel, out string, img *types.RasterImage, runErr error, elapsed time.Duration) {
	dir := resultsDir
	if dir == "" {
		dir = cfg.ResultsDir
	}
	mgr, err := results.NewManager(dir)
	if err != nil {
		logger.Warn("cannot open results directory", logger.Err(err))
		return
	}

	rec := &results.RunRecord{
		ID:       results.NewRunID(inputLabel),
		Input:    inputLabel,
		Duration: elapsed,
	}
	if runErr != nil {
		rec.Status = results.StatusFailed
		rec.ErrorCode = types.CodeOf(runErr)
		rec.ErrorMsg = runErr.Error()
	} else {
		rec.Status = results.StatusRendered
		rec.ImagePath = out
		rec.Width = img.Width
		rec.Height = img.Height
	}

	if err := mgr.Record(rec); err != nil {
		logger.Warn("failed to record run", logger.Err(err))
		return
	}
	if _, err := mgr.WriteSummary(); err != nil {
		logger.Warn("failed to write summary", logger.Err(err))
	}
}

// writePNG encodes the rendered image to path.
func writePNG(path string, img *types.RasterImage) error {
	f, err := os.Create(path)
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to create output file", err)
	}
	defer f.Close()

	if err := png.Encode(f, img.Image); err != nil {
		return types.NewAppError(types.ErrInternal, "failed to encode PNG", err)
	}
	return nil
}

// parseResolution parses "WxH" into positive width and height.
func parseResolution(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q, expected WxH with positive integers", s)
	}
	return w, h, nil
}

// fail prints the error and maps it to an exit code.
func fail(err error) int {
	fmt.Fprintln(os.Stderr, "tex2img:", err)
	switch types.CodeOf(err) {
	case types.ErrEnvironment:
		return exitEnvironment
	case types.ErrFatalSource:
		return exitFatalSource
	case types.ErrRepairExhausted:
		return exitExhausted
	case types.ErrUnclassified:
		return exitUnclassified
	case types.ErrRender:
		return exitRender
	case types.ErrInvalidInput, types.ErrConfig, types.ErrFileNotFound:
		return exitUsage
	default:
		return exitGeneral
	}
}
