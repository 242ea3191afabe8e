// Package logging provides structured logging for the display daemon.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the application.
//
// # Features
//
//   - Text output by default, JSON on request
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - stderr by default so the console display can own stdout
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr or a file path
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("renderer selected", "uuid", uuid)
//
// Packages below cmd/ accept a small Logger interface (Debug, Info, Warn,
// Error) which *Logger satisfies through the embedded slog.Logger.
package logging
