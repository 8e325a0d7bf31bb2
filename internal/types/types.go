// Package types defines the core data types and error values shared by the
// compile-and-repair pipeline.
package types

import "image"

// CompileResult is the outcome of a single LaTeX compiler invocation.
// On success PDF holds the compiled document. On failure ErrorMsg holds the
// compiler diagnostics with internal newlines collapsed, so that error
// classification can match single-line patterns against it.
type CompileResult struct {
	Success  bool   `json:"success"`
	PDF      []byte `json:"-"`
	Log      string `json:"log"`
	ErrorMsg string `json:"error_msg,omitempty"`
}

// RasterImage is the rendered first page of a compiled document.
type RasterImage struct {
	Image  image.Image `json:"-"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// ErrorCode identifies a terminal failure condition of the pipeline.
type ErrorCode string

const (
	// ErrEnvironment indicates the LaTeX toolchain is not installed.
	// Non-retryable; surfaced with install guidance before any repair runs.
	ErrEnvironment ErrorCode = "ENVIRONMENT_NOT_CONFIGURED"
	// ErrFatalSource indicates a defect in the input markup itself that
	// must never be auto-repaired.
	ErrFatalSource ErrorCode = "FATAL_SOURCE_DEFECT"
	// ErrRepairExhausted indicates a fixable error persisted past the
	// repair attempt budget.
	ErrRepairExhausted ErrorCode = "REPAIR_EXHAUSTED"
	// ErrUnclassified indicates a compiler failure with no known repair.
	ErrUnclassified ErrorCode = "UNCLASSIFIED_ERROR"
	// ErrRender indicates compilation succeeded but page extraction failed.
	ErrRender ErrorCode = "RENDERING_FAILURE"

	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrAPICall      ErrorCode = "API_CALL_ERROR"
	ErrConfig       ErrorCode = "CONFIG_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is the application error carried across package boundaries.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal when err is
// some other error type.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternal
}
