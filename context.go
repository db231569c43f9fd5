package authgate

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID attaches a correlation ID to the context. The pipeline sends
// it as X-Request-ID and stamps it into audit events; when absent a fresh
// UUID is generated per call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func newRequestID() string {
	return uuid.NewString()
}
