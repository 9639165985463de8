package httpx

import "context"

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyTraceID
	ctxKeyCorrelationID
)

// WithRequestID returns a new context that carries a request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFrom extracts the request ID from ctx.
func RequestIDFrom(ctx context.Context) (string, bool) {
	return stringFrom(ctx, ctxKeyRequestID)
}

// WithTraceID returns a new context that carries a trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyTraceID, id)
}

// TraceIDFrom extracts the trace ID from ctx.
func TraceIDFrom(ctx context.Context) (string, bool) {
	return stringFrom(ctx, ctxKeyTraceID)
}

// WithCorrelationID returns a new context that carries a correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// CorrelationIDFrom extracts the correlation ID from ctx.
func CorrelationIDFrom(ctx context.Context) (string, bool) {
	return stringFrom(ctx, ctxKeyCorrelationID)
}

func stringFrom(ctx context.Context, k ctxKey) (string, bool) {
	v := ctx.Value(k)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
