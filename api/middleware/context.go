package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxCallerID contextKey = "caller_id"

// CallerIDFromContext returns the authenticated principal, if any.
func CallerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	v, ok := ctx.Value(ctxCallerID).(uuid.UUID)
	if !ok || v == uuid.Nil {
		return uuid.Nil, false
	}
	return v, true
}

// WithCallerID injects the caller principal into the context.
func WithCallerID(ctx context.Context, callerID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCallerID, callerID)
}
