package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in logfmt-style text.
	FormatText LogFormat = "text"
	// FormatConsole outputs colourised human-readable logs.
	FormatConsole LogFormat = "console"
)

// Config contains configuration for the logger.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error")
	Level string

	// Format is the output format ("json", "text", "console")
	Format string

	// AddSource includes file and line number in logs
	AddSource bool

	// RedactSecrets masks API keys and bearer tokens
	RedactSecrets bool

	// NoColor disables colours in the console format
	NoColor bool

	// Writer is the output writer (defaults to os.Stderr)
	Writer io.Writer
}

// New creates a slog logger with the given configuration.
func New(cfg Config) (*slog.Logger, error) {
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler creates the slog handler described by cfg.
func NewHandler(cfg Config) (slog.Handler, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	var replace func([]string, slog.Attr) slog.Attr
	if cfg.RedactSecrets {
		replace = NewRedactor().ReplaceAttr
	}

	switch format {
	case FormatText:
		return slog.NewTextHandler(writer, &slog.HandlerOptions{
			Level:       level,
			AddSource:   cfg.AddSource,
			ReplaceAttr: replace,
		}), nil
	case FormatConsole:
		return tint.NewHandler(writer, &tint.Options{
			Level:       level,
			AddSource:   cfg.AddSource,
			ReplaceAttr: replace,
			TimeFormat:  time.TimeOnly,
			NoColor:     cfg.NoColor,
		}), nil
	default:
		return slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:       level,
			AddSource:   cfg.AddSource,
			ReplaceAttr: replace,
		}), nil
	}
}

// ParseLevel parses a log level string into slog.Level.
// The empty string is info.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// parseFormat parses a log format string into LogFormat.
func parseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "console":
		return FormatConsole, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
