package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxIdentityID    contextKey = "identity_id"
	ctxIdentityEmail contextKey = "identity_email"
)

// IdentityIDFromContext returns the resolved caller identity, or uuid.Nil.
func IdentityIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxIdentityID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func IdentityEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxIdentityEmail).(string); ok {
		return v
	}
	return ""
}

// WithIdentity injects the resolved caller into the context.
func WithIdentity(ctx context.Context, identityID uuid.UUID, email string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentityID, identityID)
	return context.WithValue(ctx, ctxIdentityEmail, email)
}
