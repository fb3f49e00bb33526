package auth

import (
	"context"

	"github.com/ENTISHAR-RASHID-CHOWDHURY/Hospital-Management-System/internal/platform/policy"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches the resolved identity to the request context. Done
// once per request by the authentication middleware; the identity is
// immutable afterwards.
func WithIdentity(ctx context.Context, id policy.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by the middleware.
// Handlers on protected routes must not proceed when ok is false.
func IdentityFromContext(ctx context.Context) (policy.Identity, bool) {
	id, ok := ctx.Value(identityKey).(policy.Identity)
	return id, ok
}
