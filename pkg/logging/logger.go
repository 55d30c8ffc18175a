// Package logging provides the service's JSON logger: a thin layer over
// log/slog that stamps every line with service metadata and the
// request-scoped IDs found in the context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"
)

type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var slogLevels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// ParseLevel maps a level name onto a LogLevel. Unknown names give info.
func ParseLevel(s string) LogLevel {
	l := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if l == "warning" {
		return LevelWarn
	}
	if _, ok := slogLevels[l]; ok {
		return l
	}
	return LevelInfo
}

type Config struct {
	Level       LogLevel
	ServiceName string
	Environment string
	Version     string
	Output      io.Writer
	AddSource   bool
}

// DefaultConfig reads LOG_LEVEL, ENVIRONMENT and VERSION and writes to stdout
func DefaultConfig(serviceName string) *Config {
	return &Config{
		Level:       ParseLevel(os.Getenv("LOG_LEVEL")),
		ServiceName: serviceName,
		Environment: envOr("ENVIRONMENT", "development"),
		Version:     envOr("VERSION", "unknown"),
		Output:      os.Stdout,
	}
}

// Logger embeds *slog.Logger so plain Info/Warn/Error calls work unchanged
type Logger struct {
	*slog.Logger
}

func New(config *Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       slogLevels[ParseLevel(string(config.Level))],
		AddSource:   config.AddSource,
		ReplaceAttr: utcTimestamps,
	})
	return &Logger{Logger: slog.New(handler).With(
		"service", config.ServiceName,
		"environment", config.Environment,
		"version", config.Version,
	)}
}

func utcTimestamps(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}

// NewNop discards everything
func NewNop() *Logger {
	return New(&Config{Level: LevelError, ServiceName: "nop", Output: io.Discard})
}

func (l *Logger) with(attrs ...any) *Logger {
	return &Logger{Logger: l.Logger.With(attrs...)}
}

// WithContext adds the request, correlation, user and company IDs held by ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if attrs := contextAttrs(ctx); len(attrs) > 0 {
		return l.with(attrs...)
	}
	return l
}

// WithError returns l unchanged for a nil err
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// SetDefault installs l as the slog default
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

func (l *Logger) emit(ctx context.Context, level slog.Level, msg string, attrs []any, extra map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		attrs = append(attrs, k, extra[k])
	}
	l.WithContext(ctx).Log(ctx, level, msg, attrs...)
}

func outcomeLevel(success bool) slog.Level {
	if success {
		return slog.LevelDebug
	}
	return slog.LevelError
}

// Audit records a state-changing action by userID on a resource
func (l *Logger) Audit(ctx context.Context, action, resource, resourceID, userID string, details map[string]any) {
	l.emit(ctx, slog.LevelInfo, "Audit event", []any{
		"auditAction", action,
		"resource", resource,
		"resourceId", resourceID,
		"userId", userID,
	}, details)
}

// Performance records how long an operation took
func (l *Logger) Performance(ctx context.Context, operation string, duration time.Duration, success bool, details map[string]any) {
	l.emit(ctx, slog.LevelInfo, "Performance metric", []any{
		"operation", operation,
		"durationMs", duration.Milliseconds(),
		"success", success,
	}, details)
}

// DatabaseQuery logs a driver command: debug on success, error on failure
func (l *Logger) DatabaseQuery(ctx context.Context, collection, operation string, duration time.Duration, success bool) {
	l.emit(ctx, outcomeLevel(success), "Database query", []any{
		"collection", collection,
		"operation", operation,
		"durationMs", duration.Milliseconds(),
		"success", success,
	}, nil)
}

// KafkaPublish logs a publish attempt: debug on success, error on failure
func (l *Logger) KafkaPublish(ctx context.Context, topic, eventType string, success bool, duration time.Duration) {
	l.emit(ctx, outcomeLevel(success), "Kafka publish", []any{
		"topic", topic,
		"eventType", eventType,
		"durationMs", duration.Milliseconds(),
		"success", success,
	}, nil)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
