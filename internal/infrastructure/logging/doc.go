// Package logging provides structured logging for the Agent Shell host.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the supervisor.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("backend spawned", "pid", pid)
//	logger.Error("spawn failed", "error", err)
package logging
