// Package logger provides leveled, structured logging for the pipeline.
// Output goes to stderr and optionally to a size-rotated log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for per-attempt tracing of the pipeline.
	LevelDebug Level = iota
	// LevelInfo is for normal operation messages.
	LevelInfo
	// LevelWarn is for recoverable problems.
	LevelWarn
	// LevelError is for failures.
	LevelError
)

// String returns the level name as it appears in log entries.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field is a key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	SetLevel(level Level)
	Close() error
}

// Config holds the logger configuration.
type Config struct {
	// LogFilePath is the path to the log file; empty disables file output.
	LogFilePath string
	// MaxFileSize is the file size in bytes at which the log rotates;
	// zero or negative disables rotation.
	MaxFileSize int64
	// Level is the minimum level written.
	Level Level
	// EnableConsole also writes entries to stderr.
	EnableConsole bool
}

// DefaultConfig returns the configuration the CLI starts from: console
// only, info level.
func DefaultConfig() *Config {
	return &Config{
		LogFilePath:   "",
		MaxFileSize:   10 * 1024 * 1024,
		Level:         LevelInfo,
		EnableConsole: true,
	}
}

// DefaultLogger writes plain-text entries to the configured sinks.
type DefaultLogger struct {
	config  *Config
	file    *os.File
	mu      sync.Mutex
	level   Level
	written int64 // bytes in the current log file
	sinks   []io.Writer
}

// NewDefaultLogger creates a DefaultLogger. A nil config selects the
// defaults.
func NewDefaultLogger(config *Config) (*DefaultLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	l := &DefaultLogger{
		config: config,
		level:  config.Level,
	}

	if config.LogFilePath != "" {
		dir := filepath.Dir(config.LogFilePath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		if err := l.openFile(); err != nil {
			return nil, err
		}
	}

	l.resetSinks()
	return l, nil
}

// openFile opens the log file for appending and picks up its current size
// so rotation accounting survives restarts.
func (l *DefaultLogger) openFile() error {
	file, err := os.OpenFile(l.config.LogFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	l.file = file
	l.written = info.Size()
	return nil
}

func (l *DefaultLogger) resetSinks() {
	l.sinks = l.sinks[:0]
	if l.file != nil {
		l.sinks = append(l.sinks, l.file)
	}
	if l.config.EnableConsole {
		l.sinks = append(l.sinks, os.Stderr)
	}
}

// Debug logs a debug message.
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.emit(LevelDebug, msg, nil, fields...)
}

// Info logs an informational message.
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.emit(LevelInfo, msg, nil, fields...)
}

// Warn logs a warning.
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.emit(LevelWarn, msg, nil, fields...)
}

// Error logs a failure together with its error.
func (l *DefaultLogger) Error(msg string, err error, fields ...Field) {
	l.emit(LevelError, msg, err, fields...)
}

// SetLevel changes the minimum level written.
func (l *DefaultLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close releases the log file, if any.
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *DefaultLogger) emit(level Level, msg string, err error, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	entry := format(level, msg, err, fields...)

	if l.file != nil && l.config.MaxFileSize > 0 &&
		l.written+int64(len(entry)) > l.config.MaxFileSize {
		l.rotate()
	}

	for _, sink := range l.sinks {
		sink.Write([]byte(entry))
	}
	l.written += int64(len(entry))
}

// format renders one entry: timestamp, bracketed level, message, then the
// error and fields as key=value pairs.
func format(level Level, msg string, err error, fields ...Field) string {
	var sb strings.Builder

	sb.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" [")
	sb.WriteString(level.String())
	sb.WriteString("] ")
	sb.WriteString(msg)

	if err != nil {
		fmt.Fprintf(&sb, " error=%q", err.Error())
	}
	for _, f := range fields {
		fmt.Fprintf(&sb, " %s=%v", f.Key, f.Value)
	}

	sb.WriteString("\n")
	return sb.String()
}

// rotate moves the full log aside under a timestamped name and starts a
// fresh file. Rotation failures degrade to console-only logging rather
// than failing the call that triggered them.
func (l *DefaultLogger) rotate() {
	if l.file == nil {
		return
	}
	l.file.Close()

	aside := fmt.Sprintf("%s.%s", l.config.LogFilePath,
		time.Now().UTC().Format("20060102T150405.000"))
	os.Rename(l.config.LogFilePath, aside)

	if err := l.openFile(); err != nil {
		l.file = nil
		l.written = 0
	}
	l.resetSinks()
}
