// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// Init configures the global slog default with the given level and format.
// Every writer in w gets its own handler and records fan out to all of them.
// With no writers os.Stderr is used. Format must be "text" or "json".
func Init(level slog.Level, format string, w ...io.Writer) *slog.Logger {
	var writers []io.Writer
	for _, writer := range w {
		if writer != nil {
			writers = append(writers, writer)
		}
	}
	if len(writers) == 0 {
		writers = []io.Writer{os.Stderr}
	}

	opts := &slog.HandlerOptions{Level: level}

	handlers := make([]slog.Handler, 0, len(writers))
	for _, writer := range writers {
		switch format {
		case "json":
			handlers = append(handlers, slog.NewJSONHandler(writer, opts))
		default:
			handlers = append(handlers, slog.NewTextHandler(writer, opts))
		}
	}

	var handler slog.Handler
	if len(handlers) == 1 {
		handler = handlers[0]
	} else {
		handler = slogmulti.Fanout(handlers...)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// OpenFile opens path for appending log output.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", path, err)
	}
	return f, nil
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
