package integration

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying the given correlation id.
// Once established for a logical operation it must not change.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id carried by ctx, falling back to
// the chi request id when present. Empty when neither exists.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}

// EnsureCorrelationID returns ctx with a correlation id, fabricating one
// when the ambient context carries none.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := CorrelationID(ctx); id != "" {
		return WithCorrelationID(ctx, id), id
	}
	id := uuid.New().String()
	return WithCorrelationID(ctx, id), id
}
