package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format represents the log output format.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level Level

	// Format is the output format (text or json).
	Format Format

	// Output is the writer to send logs to. Defaults to os.Stderr.
	Output io.Writer

	// AddSource adds source file and line to log entries.
	AddSource bool
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stderr,
	}
}

// New creates a new slog.Logger with the given configuration.
func New(cfg Config) *slog.Logger {
	return slog.New(NewHandler(cfg))
}

// NewHandler creates the slog.Handler backing New. It is exposed so callers
// can combine several outputs with NewMultiHandler.
func NewHandler(cfg Config) slog.Handler {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(cfg.Output, opts)
	}
	return slog.NewTextHandler(cfg.Output, opts)
}

// NewWithFile creates a logger that writes to cfg.Output and additionally
// appends JSON records to the file at path. The returned closer releases the
// file and must be called when the logger is no longer used.
func NewWithFile(cfg Config, path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return New(cfg), io.NopCloser(nil), nil
	}

	//nolint:gosec // G304: log file path comes from the operator
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	fileHandler := NewHandler(Config{
		Level:  cfg.Level,
		Format: FormatJSON,
		Output: f,
	})
	return slog.New(NewMultiHandler(NewHandler(cfg), fileHandler)), f, nil
}

// Nop returns a no-op logger that discards all output.
// Use this when a logger is required but logging is disabled.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel parses a log level string, case-insensitively.
// Valid values: "debug", "info", "warn", "warning", "error".
// Returns LevelInfo if the string is not recognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses a log format string.
// Valid values: "text", "json".
// Returns FormatText if the string is not recognized.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}
