package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"tex2img/internal/types"
)

func TestNewDefaults(t *testing.T) {
	c := New("")
	if c.Command() != CompilerPDFLaTeX {
		t.Errorf("default command = %q, want %q", c.Command(), CompilerPDFLaTeX)
	}
	if c.Timeout() != DefaultTimeout {
		t.Errorf("default timeout = %v, want %v", c.Timeout(), DefaultTimeout)
	}
}

func TestNewOptions(t *testing.T) {
	c := New(CompilerXeLaTeX, WithTimeout(5*time.Second), WithWorkDir(t.TempDir()))
	if c.Command() != CompilerXeLaTeX {
		t.Errorf("command = %q, want %q", c.Command(), CompilerXeLaTeX)
	}
	if c.Timeout() != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", c.Timeout())
	}
}

func TestCompileMissingToolchain(t *testing.T) {
	c := New("definitely-not-a-latex-compiler-7f3a")
	_, err := c.Compile(context.Background(), `\documentclass{article}`, "")
	if types.CodeOf(err) != types.ErrEnvironment {
		t.Fatalf("error code = %v, want ErrEnvironment", types.CodeOf(err))
	}
	if !strings.Contains(err.Error(), "definitely-not-a-latex-compiler-7f3a") {
		t.Errorf("error should name the missing command: %v", err)
	}
}

func TestCompileTimeoutIsAFailedResult(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a shell script stand-in for the compiler")
	}

	// A stand-in compiler that hangs: the timeout must surface as a failed
	// compilation, not as an invocation error.
	dir := t.TempDir()
	script := filepath.Join(dir, "slowtex")
	err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 10\n"), 0755)
	if err != nil {
		t.Fatal(err)
	}

	c := New(script, WithTimeout(100*time.Millisecond), WithWorkDir(dir))
	result, err := c.Compile(context.Background(), `\documentclass{article}`, "")
	if err != nil {
		t.Fatalf("Compile() error = %v, want failed result", err)
	}
	if result.Success {
		t.Fatal("timed-out compilation reported success")
	}
	if !strings.Contains(result.ErrorMsg, "timed out") {
		t.Errorf("ErrorMsg = %q, want timeout diagnostic", result.ErrorMsg)
	}
}

func TestExtractDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		log  string
		want string
	}{
		{
			name: "single error block",
			log: "This is pdfTeX\n(./document.tex\n! Undefined control sequence.\nl.3 \\blabla\n\nOutput written.",
			want: "! Undefined control sequence.\nl.3 \\blabla",
		},
		{
			name: "two error blocks",
			log:  "x\n! First.\ndetail\n\ny\n! Second.\n\nz",
			want: "! First.\ndetail\n! Second.",
		},
		{
			name: "no bang lines falls back to the tail",
			log:  "line one\nline two",
			want: "line one\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractDiagnostics(tt.log); got != tt.want {
				t.Errorf("extractDiagnostics() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollapseNewlines(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"! LaTeX Error: Environment tabu\nlar undefined.", "! LaTeX Error: Environment tabular undefined."},
		{"one\r\ntwo", "onetwo"},
		{"flat", "flat"},
	}
	for _, tt := range tests {
		if got := CollapseNewlines(tt.in); got != tt.want {
			t.Errorf("CollapseNewlines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCombineOutput(t *testing.T) {
	if got := combineOutput("out", "err"); got != "out\nerr" {
		t.Errorf("combineOutput = %q", got)
	}
	if got := combineOutput("out", ""); got != "out" {
		t.Errorf("combineOutput with empty stderr = %q", got)
	}
	if got := combineOutput("", ""); got != "" {
		t.Errorf("combineOutput of nothing = %q", got)
	}
}
