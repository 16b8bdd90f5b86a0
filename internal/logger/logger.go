// Package logger provides structured logging for the ACP engine.
// It uses Go's log/slog package with text or JSON output and file rotation via lumberjack.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration options.
type Config struct {
	// LogDir is the directory where log files are stored.
	// If empty, only stderr logging is enabled.
	LogDir string

	// Debug enables debug-level logging.
	Debug bool

	// JSON enables JSON output format. If false, text format is used.
	JSON bool

	// Component is an optional component name added to every log entry.
	Component string
}

// Init initializes the global slog logger with the given configuration.
// It writes to stderr, and also to a rotating log file if LogDir is
// specified. Stdout is left alone because a stdio agent uses it as its
// protocol channel.
func Init(cfg Config) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var writer io.Writer = os.Stderr

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return err
		}

		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "acp.log"),
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}

		writer = io.MultiWriter(os.Stderr, logFile)
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	logger := slog.New(handler)
	if cfg.Component != "" {
		logger = logger.With("component", cfg.Component)
	}

	slog.SetDefault(logger)
	return nil
}

// Named returns a logger scoped to the given component name, derived
// from the current default logger. Used by engine subsystems
// (transport, session, dispatcher) that want their log lines
// tagged without depending on global Init having run with a component.
func Named(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// With returns a new logger with the given attributes added to all log entries.
func With(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}
