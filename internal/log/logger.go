// Package log provides structured logging for waveform.
//
// The Logger interface is backed by Go's stdlib slog so subsystems can be
// handed a logger through functional options and tests can capture output.
// A global default exists for code paths that have no logger injected.
//
// Output semantics:
//   - User output (stdout): command results and install messages
//   - Diagnostic logging (stderr): Debug, Info, Warn, Error messages
//
// Verbosity levels:
//   - ERROR (--quiet): Errors only
//   - WARN (default): Warnings and user output
//   - INFO (--verbose): Install steps, remediation commands
//   - DEBUG (--debug): Paths, glob matches, linker output
package log

import (
	"io"
	"log/slog"
	"net/url"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature for easy integration.
type Logger interface {
	// Debug logs at DEBUG level. Use for internal state such as
	// workspace paths or raw linker output.
	Debug(msg string, args ...any)

	// Info logs at INFO level. Use for operational context like
	// "downloading asset" or "running apt-get".
	Info(msg string, args ...any)

	// Warn logs at WARN level. Use for recoverable issues like
	// a missing ldd that causes the dependency audit to be skipped.
	Warn(msg string, args ...any)

	// Error logs at ERROR level.
	Error(msg string, args ...any)

	// With returns a Logger that adds the given key-value pairs
	// to every subsequent entry.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewCLI returns a text logger writing to w at the level implied by the
// CLI verbosity flags. quiet wins over debug, debug over verbose.
func NewCLI(w io.Writer, quiet, verbose, debug bool) Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
// Returns a noop logger if SetDefault has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. Call once from main after
// parsing verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// SanitizeURL strips credentials and query parameters from a URL so it
// can be logged. Unparseable input is returned as "<invalid url>".
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
