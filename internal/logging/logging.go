// Package logging configures the process-wide slog logger.
package logging

import (
	"coach/internal/configuration"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel converts a configured level ("debug", "info", "warn", "warning", "error").
// If the level is not recognized, Info is used.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a JSON logger writing to the configured file, rotated by lumberjack, or to
// fallback when no file is configured. The returned closer releases the file.
func New(config configuration.LoggerConfig, fallback io.Writer) (*slog.Logger, io.Closer) {
	var (
		out    = fallback
		closer io.Closer = nopCloser{}
	)
	if config.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    config.Size,
			MaxBackups: config.Amount,
			Compress:   true,
		}
		out, closer = rotating, rotating
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(config.Level),
	})
	return slog.New(handler), closer
}

// Setup installs the configured logger as the slog default. Logs go to stderr unless a
// file is configured.
func Setup(config configuration.LoggerConfig) io.Closer {
	logger, closer := New(config, os.Stderr)
	slog.SetDefault(logger)
	return closer
}
