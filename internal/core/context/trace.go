package context

import (
	"context"

	"github.com/google/uuid"
)

// TraceContext contains request tracing information.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// NewTrace creates a TraceContext with generated identifiers.
func NewTrace(requestID, traceID string) *TraceContext {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return &TraceContext{
		TraceID:   traceID,
		SpanID:    uuid.New().String()[:16],
		RequestID: requestID,
	}
}
