// Package logging provides a minimal logging interface and adapters for loom.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that chains, models and graphs use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter for callers already on go.uber.org/zap
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - LoomLogger with run/component context and domain helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
