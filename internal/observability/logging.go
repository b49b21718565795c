// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger is the structured logger used throughout the application.
var Logger *slog.Logger

type contextKey string

// Context keys picked up by the context-aware log handler.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok && uid != "" {
		r.AddAttrs(slog.String("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the context-aware wrapper when attributes are attached.
func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context-aware wrapper when a group is opened.
func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"))
}

// NewLogger builds a context-aware logger: JSON in production, text otherwise.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	level := slog.LevelInfo

	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(&ctxHandler{handler})
}

// WithUserID returns a context carrying the acting user's id for logging.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// StorageLogger provides structured logging for key-value storage operations.
type StorageLogger struct {
	driver string
	logger *slog.Logger
}

// NewStorageLogger creates a StorageLogger for the given storage driver.
func NewStorageLogger(driver string) *StorageLogger {
	return &StorageLogger{
		driver: driver,
		logger: Logger,
	}
}

// LogWrite logs a completed key write.
func (l *StorageLogger) LogWrite(ctx context.Context, key string, size int) {
	l.logger.DebugContext(ctx, "storage write",
		slog.String("driver", l.driver),
		slog.String("key", key),
		slog.Int("bytes", size),
	)
}

// LogDelete logs a completed key delete.
func (l *StorageLogger) LogDelete(ctx context.Context, key string) {
	l.logger.DebugContext(ctx, "storage delete",
		slog.String("driver", l.driver),
		slog.String("key", key),
	)
}

// LogError logs a failed storage operation and counts it.
func (l *StorageLogger) LogError(ctx context.Context, err error, operation, key string) {
	StorageErrors.WithLabelValues(l.driver, operation).Inc()
	l.logger.ErrorContext(ctx, "storage error",
		slog.String("driver", l.driver),
		slog.String("operation", operation),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// LogServiceCall logs an action invoked on a service.
func LogServiceCall(ctx context.Context, service, method string, attrs ...any) {
	base := []any{
		slog.String("service", service),
		slog.String("method", method),
	}
	Logger.InfoContext(ctx, "service call", append(base, attrs...)...)
}
