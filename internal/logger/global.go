package logger

import "sync"

var (
	globalLogger Logger
	globalMu     sync.Mutex
)

// Init initializes the global logger with the given configuration.
// It replaces any previously initialized logger.
func Init(config *Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	l, err := NewDefaultLogger(config)
	if err != nil {
		return err
	}

	if globalLogger != nil {
		globalLogger.Close()
	}
	globalLogger = l
	return nil
}

// get returns the global logger, lazily initializing a console logger.
func get() Logger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger == nil {
		l, err := NewDefaultLogger(DefaultConfig())
		if err != nil {
			return nil
		}
		globalLogger = l
	}
	return globalLogger
}

// SetGlobal replaces the global logger, for tests.
func SetGlobal(l Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Close closes the global logger
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalLogger != nil {
		err := globalLogger.Close()
		globalLogger = nil
		return err
	}
	return nil
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if l := get(); l != nil {
		l.Debug(msg, fields...)
	}
}

// Info logs an informational message using the global logger
func Info(msg string, fields ...Field) {
	if l := get(); l != nil {
		l.Info(msg, fields...)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if l := get(); l != nil {
		l.Warn(msg, fields...)
	}
}

// Error logs an error message using the global logger
func Error(msg string, err error, fields ...Field) {
	if l := get(); l != nil {
		l.Error(msg, err, fields...)
	}
}

// SetLevel sets the minimum level on the global logger
func SetLevel(level Level) {
	if l := get(); l != nil {
		l.SetLevel(level)
	}
}
