// Package logging provides a minimal logging interface and adapters for agenttrace.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the ingestor, replay player and runner use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping a *zap.Logger
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - TraceLogger, a slog based logger carrying session and turn context
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(func(o *runner.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
