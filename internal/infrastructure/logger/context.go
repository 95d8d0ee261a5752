package logger

import (
	"context"
	"maps"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Field names carried on request contexts
const (
	FieldRequestID = "request_id"
	FieldTenantID  = "tenant_id"
	FieldUserID    = "user_id"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	fieldsKey
)

// WithContext stores l on ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored on ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithField records key on ctx and adds it to the context logger
func WithField(ctx context.Context, key, value string) context.Context {
	fields := map[string]string{key: value}
	if parent, ok := ctx.Value(fieldsKey).(map[string]string); ok {
		fields = maps.Clone(parent)
		fields[key] = value
	}
	ctx = context.WithValue(ctx, fieldsKey, fields)
	return WithContext(ctx, FromContext(ctx).With(zap.String(key, value)))
}

// Field returns a value recorded with WithField, or ""
func Field(ctx context.Context, key string) string {
	fields, _ := ctx.Value(fieldsKey).(map[string]string)
	return fields[key]
}

// L returns the context logger tagged with the active trace_id and span_id
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
