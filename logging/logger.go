// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer TraceLogger with contextual
// helpers (session, turn, component) and domain specific logging helpers for
// turns and replays.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case insensitive level name to a LogLevel. Unknown names
// yield LogLevelInfo.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for agenttrace. Args are
// alternating key/value pairs as in log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// TraceLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. It is cheap to copy via the With* methods. A logger
// built by Wrap writes through another Logger instead of a slog handler.
type TraceLogger struct {
	logger    *slog.Logger
	base      Logger
	level     LogLevel
	context   map[string]any
	component string
	sessionID string
	turnID    string
}

// LoggerConfig configures construction of a TraceLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	SessionID   string
	TurnID      string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr, AddSource: false, CustomAttrs: map[string]any{}}
}

// NewLogger builds a TraceLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *TraceLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	l := &TraceLogger{logger: slog.New(handler), level: cfg.Level, context: map[string]any{}, component: cfg.Component, sessionID: cfg.SessionID, turnID: cfg.TurnID}
	for k, v := range cfg.CustomAttrs {
		l.context[k] = v
	}
	return l
}

// Wrap returns l as a TraceLogger. A TraceLogger is returned unchanged; any
// other Logger becomes the output of a new TraceLogger that leaves level
// filtering to it.
func Wrap(l Logger) *TraceLogger {
	if tl, ok := l.(*TraceLogger); ok {
		return tl
	}
	if l == nil {
		l = NoOpLogger{}
	}
	return &TraceLogger{base: l, level: LogLevelDebug, context: map[string]any{}}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *TraceLogger) clone() *TraceLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *TraceLogger) WithContext(key string, value any) *TraceLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (ingestor, replay, runner, ...).
func (l *TraceLogger) WithComponent(c string) *TraceLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession attaches session and turn identifiers.
func (l *TraceLogger) WithSession(sessionID, turnID string) *TraceLogger {
	nl := l.clone()
	nl.sessionID = sessionID
	nl.turnID = turnID
	return nl
}

func (l *TraceLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	if l.turnID != "" {
		attrs = append(attrs, slog.String("turn_id", l.turnID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *TraceLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	if l.base != nil {
		attrs := l.buildAttrs()
		kv := make([]any, 0, 2*len(attrs)+len(args))
		for _, a := range attrs {
			kv = append(kv, a.Key, a.Value.Any())
		}
		kv = append(kv, args...)
		switch level {
		case slog.LevelDebug:
			l.base.Debug(msg, kv...)
		case slog.LevelInfo:
			l.base.Info(msg, kv...)
		case slog.LevelWarn:
			l.base.Warn(msg, kv...)
		default:
			l.base.Error(msg, kv...)
		}
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, 0)
	r.AddAttrs(l.buildAttrs()...)
	r.Add(args...)
	_ = l.logger.Handler().Handle(context.Background(), r)
}

// Debug logs at debug level.
func (l *TraceLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *TraceLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *TraceLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *TraceLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogTurn records the outcome of a streamed turn. The turn id is added unless
// WithSession already attached it.
func (l *TraceLogger) LogTurn(turnID string, events int, dur time.Duration, err error) {
	args := make([]any, 0, 10)
	if l.turnID != turnID {
		args = append(args, "turn_id", turnID)
	}
	args = append(args, "event_count", events, "duration", dur, "success", err == nil)
	if err != nil {
		l.Error("Turn failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("Turn completed", args...)
}

// LogReplay records a reconstruction of the first upto log entries.
func (l *TraceLogger) LogReplay(upto, total int, dur time.Duration) {
	l.Debug("Replay reconstructed", "upto", upto, "total", total, "duration", dur)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new TraceLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *TraceLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
