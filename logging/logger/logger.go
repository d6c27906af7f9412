// Package logger provides structured logging on top of logrus.
//
// Methods take a context first and variadic key/value pairs:
//
//	log.Info(ctx, "user created", "id", user.ID)
package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger with context-aware convenience methods.
type Logger struct {
	*logrus.Logger
}

var (
	std  *Logger
	once sync.Once
)

// StdLogger returns the process-wide logger. It defaults to JSON output at
// info level until New reconfigures it.
func StdLogger() *Logger {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		std = &Logger{Logger: l}
	})
	return std
}

// New configures the standard logger from a level name (trace, debug, info,
// warn, error) and a format ("json" or "text"). Unknown levels fall back to
// info, matching the permissive behavior of the config layer.
func New(level, format string) *Logger {
	l := StdLogger()

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	switch format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	}
	return l
}

// correlationKey is the context key under which middleware stores the request
// correlation id.
type correlationKey struct{}

// WithCorrelationID returns a context carrying a correlation id that the
// logger attaches to every entry logged with that context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id stored in ctx, if any.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok {
		return id
	}
	return ""
}

func (l *Logger) entry(ctx context.Context, kv []any) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	if ctx != nil {
		if id := CorrelationID(ctx); id != "" {
			fields["correlation_id"] = id
		}
	}
	return l.WithFields(fields)
}

// Debug logs a message at debug level with key/value fields.
func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv).Debug(msg)
}

// Info logs a message at info level with key/value fields.
func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv).Info(msg)
}

// Warn logs a message at warn level with key/value fields.
func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv).Warn(msg)
}

// Error logs a message at error level with key/value fields.
func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.entry(ctx, kv).Error(msg)
}
