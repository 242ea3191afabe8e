package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/upnp-display/internal/infrastructure/config"
)

// ServiceName is attached to every log entry.
const ServiceName = "upnp-display"

// Logger wraps slog.Logger with the daemon's default fields.
// It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New creates a Logger writing to cfg.Output: "stderr" (the default),
// "stdout" or a file path opened for appending. stdout belongs to the
// console display, so it is only sensible when the display is elsewhere.
// If the file cannot be opened the logger falls back to stderr and says so.
func New(cfg config.LoggingConfig, version string) *Logger {
	output, err := openOutput(cfg.Output)
	logger := NewWithWriter(cfg, version, output)
	if err != nil {
		logger.Warn("log output unavailable, using stderr", "output", cfg.Output, "error", err)
	}
	return logger
}

func openOutput(name string) (io.Writer, error) {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return os.Stderr, err
	}
	return f, nil
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, version string, output io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler = slog.NewTextHandler(output, opts)
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler).With(
		slog.String("service", ServiceName),
		slog.String("version", version),
	)}
}

// parseLevel accepts slog's level names (debug, info, warn, error, with
// optional offsets such as "debug+2") plus "warning". Anything else is info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// With returns a Logger that adds args to every entry.
//
// Example:
//
//	upnpLogger := logger.With("component", "upnp")
//	upnpLogger.Info("subscribed") // Includes component=upnp
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default creates a logger for use before configuration is loaded.
// It writes text at info level to stderr.
func Default() *Logger {
	return NewWithWriter(config.LoggingConfig{Level: "info"}, "dev", os.Stderr)
}
