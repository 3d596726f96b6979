// Package log carries the shared structured-logging conventions: a thin
// slog wrapper that pins a component attribute, plus the field constants
// and builder used for transfer-related records.
package log

import (
	"log/slog"
	"os"
)

// Logger is slog with a component attribute pinned to every record. The
// leveled methods come from the embedded slog.Logger.
type Logger struct {
	*slog.Logger
}

type Config struct {
	Level slog.Level

	// Handler overrides the default text handler, used by tests to
	// capture output.
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo}
}

// New builds a logger writing text records to stdout unless the config
// supplies its own handler.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	return &Logger{Logger: slog.New(handler)}
}

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithComponent returns a logger whose records identify the emitting
// component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(FieldComponent, component)
}
