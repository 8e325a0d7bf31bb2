// Package compiler invokes the external LaTeX toolchain on an in-memory
// document and reports the outcome. The toolchain is treated as an opaque
// black box: it either produces a PDF or a diagnostic log.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"tex2img/internal/logger"
	"tex2img/internal/types"
)

const (
	// CompilerPDFLaTeX is the pdflatex compiler
	CompilerPDFLaTeX = "pdflatex"
	// CompilerXeLaTeX is the xelatex compiler
	CompilerXeLaTeX = "xelatex"
	// CompilerLuaLaTeX is the lualatex compiler
	CompilerLuaLaTeX = "lualatex"
)

// DefaultTimeout is the default compilation timeout
const DefaultTimeout = 2 * time.Minute

// jobFileName is the name the document is compiled under inside the job dir.
const jobFileName = "document.tex"

// EnvironmentHint is appended to the environment error so callers can tell
// users how to make compilation work.
const EnvironmentHint = "install a LaTeX distribution (e.g. `sudo apt-get install texlive-full`) and make sure it is available in your PATH"

// LaTeXCompiler compiles LaTeX source strings to PDF.
type LaTeXCompiler struct {
	command string        // "pdflatex", "xelatex" or "lualatex"
	workDir string        // base directory for job dirs; empty means os.TempDir
	timeout time.Duration // per-invocation timeout
	keepJob bool          // keep the job directory for debugging
}

// Option configures a LaTeXCompiler.
type Option func(*LaTeXCompiler)

// WithWorkDir sets the base directory under which job directories are created.
func WithWorkDir(dir string) Option {
	return func(c *LaTeXCompiler) { c.workDir = dir }
}

// WithTimeout sets the per-invocation compilation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *LaTeXCompiler) { c.timeout = d }
}

// WithKeepJobDir keeps the temporary job directory after compilation,
// for inspecting logs and intermediate files.
func WithKeepJobDir(keep bool) Option {
	return func(c *LaTeXCompiler) { c.keepJob = keep }
}

// New creates a LaTeXCompiler running the given command. An empty command
// selects pdflatex.
func New(command string, opts ...Option) *LaTeXCompiler {
	if command == "" {
		command = CompilerPDFLaTeX
	}
	c := &LaTeXCompiler{
		command: command,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command returns the configured compiler command.
func (c *LaTeXCompiler) Command() string {
	return c.command
}

// Timeout returns the per-invocation timeout.
func (c *LaTeXCompiler) Timeout() time.Duration {
	return c.timeout
}

// Compile compiles source to PDF. assetsDir, when non-empty, is added to
// TEXINPUTS so relative asset references resolve during compilation.
//
// A failed compilation is not an error: the result carries Success=false and
// the collapsed diagnostics in ErrorMsg so the caller can classify them.
// A non-nil error means the invocation itself could not run, most notably
// types.ErrEnvironment when no toolchain is installed.
func (c *LaTeXCompiler) Compile(ctx context.Context, source string, assetsDir string) (*types.CompileResult, error) {
	if _, err := exec.LookPath(c.command); err != nil {
		logger.Error("LaTeX toolchain not found", err, logger.String("command", c.command))
		return nil, types.NewAppErrorWithDetails(types.ErrEnvironment,
			fmt.Sprintf("LaTeX toolchain not found: %s", c.command),
			EnvironmentHint, err)
	}

	jobDir, err := os.MkdirTemp(c.workDir, "tex2img-")
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to create job directory", err)
	}
	if !c.keepJob {
		defer os.RemoveAll(jobDir)
	}

	texPath := filepath.Join(jobDir, jobFileName)
	if err := os.WriteFile(texPath, []byte(source), 0644); err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to write tex file", err)
	}

	logger.Debug("compiling document",
		logger.String("command", c.command),
		logger.String("jobDir", jobDir),
		logger.Int("sourceLen", len(source)))

	log, timedOut := c.runCompiler(ctx, jobDir, assetsDir)
	if timedOut {
		// A hung compilation is just another failed one: report it through
		// the result so the caller classifies it like any other failure.
		logger.Warn("compilation timed out",
			logger.Duration("timeout", c.timeout),
			logger.Int("logLen", len(log)))
		return &types.CompileResult{
			Success:  false,
			Log:      log,
			ErrorMsg: fmt.Sprintf("compilation timed out after %s", c.timeout),
		}, nil
	}

	pdfPath := filepath.Join(jobDir, strings.TrimSuffix(jobFileName, ".tex")+".pdf")
	pdf, readErr := os.ReadFile(pdfPath)
	if readErr != nil || len(pdf) == 0 {
		errMsg := CollapseNewlines(extractDiagnostics(log))
		logger.Info("compilation failed",
			logger.Int("logLen", len(log)),
			logger.String("diagnostics", truncate(errMsg, 200)))
		return &types.CompileResult{
			Success:  false,
			Log:      log,
			ErrorMsg: errMsg,
		}, nil
	}

	logger.Debug("compilation succeeded", logger.Int("pdfBytes", len(pdf)))
	return &types.CompileResult{
		Success: true,
		PDF:     pdf,
		Log:     log,
	}, nil
}

// runCompiler executes a single compilation pass in the job directory. A
// nonzero compiler exit is not reported here: whether the pass succeeded is
// decided by the presence of the output PDF, since LaTeX exits nonzero for
// failures its log already explains.
func (c *LaTeXCompiler) runCompiler(ctx context.Context, jobDir string, assetsDir string) (log string, timedOut bool) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{
		"-interaction=nonstopmode",
		"-halt-on-error",
		jobFileName,
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = jobDir

	// The trailing path separator means "also search default paths".
	pathSep := ":"
	if runtime.GOOS == "windows" {
		pathSep = ";"
	}
	texInputs := "." + pathSep
	if assetsDir != "" {
		texInputs += assetsDir + pathSep
	}
	cmd.Env = append(os.Environ(), "TEXINPUTS="+texInputs)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Run()
	log = combineOutput(stdout.String(), stderr.String())

	return log, ctx.Err() == context.DeadlineExceeded
}

// extractDiagnostics pulls the error portion out of a LaTeX log. Error
// messages start with "!" and may continue on following lines until a blank
// line. When no "!" line exists the tail of the log is returned instead.
func extractDiagnostics(log string) string {
	lines := strings.Split(log, "\n")
	var diag []string
	inError := false

	for _, line := range lines {
		if strings.HasPrefix(line, "!") {
			inError = true
		}
		if inError {
			if strings.TrimSpace(line) == "" {
				inError = false
				continue
			}
			diag = append(diag, line)
		}
	}

	if len(diag) == 0 {
		// Fallback: the last lines usually hold the reason
		const tail = 30
		start := len(lines) - tail
		if start < 0 {
			start = 0
		}
		diag = lines[start:]
	}

	return strings.Join(diag, "\n")
}

// CollapseNewlines flattens a multi-line diagnostic into a single line so
// classification patterns can match across the compiler's hard line wraps.
func CollapseNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r", ""), "\n", "")
}

// combineOutput combines stdout and stderr into a single log string
func combineOutput(stdout, stderr string) string {
	var parts []string
	if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr != "" {
		parts = append(parts, stderr)
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
