package identity

import "context"

// Identity is the acting participant as seen by the trading core.
type Identity struct {
	ID   string
	Name string
}

// Provider resolves the current identity for a call, or reports none.
type Provider interface {
	Current(ctx context.Context) (Identity, bool)
}

// Static always resolves to the same identity. A zero Static resolves to none.
type Static Identity

func (s Static) Current(context.Context) (Identity, bool) {
	if s.ID == "" {
		return Identity{}, false
	}

	return Identity(s), true
}

type contextKey struct{}

// WithIdentity stores id in ctx for FromContext to resolve.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext resolves identities placed in the request context by Middleware.
type FromContext struct{}

func (FromContext) Current(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}

	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}

	return id, true
}
