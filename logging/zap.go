package logging

import "go.uber.org/zap"

// ZapAdapter wraps a *zap.Logger to implement the Logger interface. Key/value
// args are passed through zap's sugared API.
type ZapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter creates a Logger backed by logger. A nil logger yields a no-op
// zap logger.
func NewZapAdapter(logger *zap.Logger) *ZapAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapAdapter{sugar: logger.Sugar()}
}

// Debug logs a debug message.
func (z *ZapAdapter) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }

// Info logs an informational message.
func (z *ZapAdapter) Info(msg string, args ...any) { z.sugar.Infow(msg, args...) }

// Warn logs a warning message.
func (z *ZapAdapter) Warn(msg string, args ...any) { z.sugar.Warnw(msg, args...) }

// Error logs an error message.
func (z *ZapAdapter) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// Sync flushes buffered entries.
func (z *ZapAdapter) Sync() error { return z.sugar.Sync() }
