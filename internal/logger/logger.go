// Package logger provides structured logging configuration using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel names the environment variable that overrides the configured level.
const EnvLevel = "GOPLAYER_LOG_LEVEL"

// Config holds logger configuration.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"

	// Output defaults to os.Stderr
	Output io.Writer
}

// NewLogger creates a configured slog.Logger.
func NewLogger(cfg Config) *slog.Logger {
	var handler slog.Handler

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
		// Add a source location for debug level
		AddSource: cfg.Level <= slog.LevelDebug,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps DEBUG, INFO, WARN, WARNING and ERROR (any case) to a slog level.
// The second return value is false for anything else.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// DefaultConfig returns the default logger configuration.
// Parses the GOPLAYER_LOG_LEVEL environment variable to set the log level.
// Default: INFO
func DefaultConfig() Config {
	return FromSettings("", "text")
}

// FromSettings builds a Config from the textual level and format found in the
// configuration file. GOPLAYER_LOG_LEVEL wins over the file when it is valid.
func FromSettings(level, format string) Config {
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = slog.LevelInfo
	}

	if envLevel := os.Getenv(EnvLevel); envLevel != "" {
		if parsed, ok := ParseLevel(envLevel); ok {
			lvl = parsed
		}
	}

	if format != "json" {
		format = "text"
	}

	return Config{
		Level:  lvl,
		Format: format,
	}
}
