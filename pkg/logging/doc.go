// Package logging provides structured logging configuration for mockserver.
//
// This package wraps log/slog so the server, its middleware and the CLI log
// the same way. It supports configurable log levels and output formats.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatText,
//	})
//
//	logger.Info("server started", "port", 8080)
//	logger.Error("failed to bind", "error", err)
//
// # Output Formats
//
//   - Text: Human-readable format for development
//   - JSON: Structured format for log aggregation systems
//
// # Integration
//
// Components accept a *slog.Logger through their builder or constructor.
// If no logger is provided, they use logging.Nop().
package logging
