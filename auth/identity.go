package auth

import (
	"context"
	"time"
)

// Identity is the authenticated caller.
type Identity struct {
	// Subject is the sub claim.
	Subject string

	// Claims contains the raw token claims.
	Claims map[string]any

	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

type contextKey struct{}

// WithIdentity returns a new context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity attached by Middleware, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}
