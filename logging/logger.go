package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel selects the minimum severity a HubLogger emits.
type LogLevel = slog.Level

// Supported levels.
const (
	LogLevelDebug = slog.LevelDebug
	LogLevelInfo  = slog.LevelInfo
	LogLevelWarn  = slog.LevelWarn
	LogLevelError = slog.LevelError
)

// ParseLevel maps a config string onto a LogLevel. Unknown values yield info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for insighthub.
// Args are alternating key/value pairs as in log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// LoggerConfig configures construction of a HubLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	// Attrs are attached to every record.
	Attrs []slog.Attr
}

// DefaultLoggerConfig returns a baseline JSON info level configuration writing to stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr}
}

// HubLogger is a structured logger scoped by component, session and agent.
// The With* methods return derived loggers and never modify the receiver.
type HubLogger struct {
	logger *slog.Logger
}

// NewLogger builds a HubLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *HubLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Attrs) > 0 {
		handler = handler.WithAttrs(cfg.Attrs)
	}

	l := FromSlog(slog.New(handler))
	if cfg.Component != "" {
		l = l.WithComponent(cfg.Component)
	}

	return l
}

// NewSlogLogger creates a HubLogger writing to stderr.
func NewSlogLogger(level LogLevel, format string, addSource bool) *HubLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

// FromSlog wraps an existing *slog.Logger; nil means slog.Default().
func FromSlog(l *slog.Logger) *HubLogger {
	if l == nil {
		l = slog.Default()
	}
	return &HubLogger{logger: l}
}

// Slog exposes the underlying *slog.Logger.
func (l *HubLogger) Slog() *slog.Logger { return l.logger }

// With attaches arbitrary key/value attributes.
func (l *HubLogger) With(args ...any) *HubLogger {
	return &HubLogger{logger: l.logger.With(args...)}
}

// WithComponent sets the logical component (orchestrator, memory, agent, ...).
func (l *HubLogger) WithComponent(c string) *HubLogger { return l.With("component", c) }

// WithSession attaches the session identifier.
func (l *HubLogger) WithSession(sid string) *HubLogger { return l.With("session_id", sid) }

// WithAgent attaches the agent identifier.
func (l *HubLogger) WithAgent(agent string) *HubLogger { return l.With("agent", agent) }

func (l *HubLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *HubLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *HubLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *HubLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// LogAgentRun records the terminal outcome of one agent invocation.
func (l *HubLogger) LogAgentRun(agent, status string, dur time.Duration, err error) {
	args := []any{"agent", agent, "status", status, "duration", dur}
	if err != nil {
		args = append(args, "error", err.Error(), "error_type", fmt.Sprintf("%T", err))
		l.Warn("agent run failed", args...)
		return
	}
	l.Info("agent run completed", args...)
}

// LogModelCall records model call latency, output size and success.
func (l *HubLogger) LogModelCall(model string, chars int, dur time.Duration, err error) {
	if err != nil {
		l.Error("model call failed", "model", model, "duration", dur, "error", err.Error())
		return
	}
	l.Debug("model call completed", "model", model, "output_chars", chars, "duration", dur)
}

// LogSession records the outcome of one analysis session.
func (l *HubLogger) LogSession(mode string, completed, total int, dur time.Duration, err error) {
	args := []any{"mode", mode, "agents_completed", completed, "total_agents", total, "duration", dur}
	if err != nil {
		l.Error("session failed", append(args, "error", err.Error())...)
		return
	}
	l.Info("session completed", args...)
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}
