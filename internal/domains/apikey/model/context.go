package model

import "context"

type ctxKey struct{}

// WithKey attaches an authenticated key to ctx.
func WithKey(ctx context.Context, k *APIKey) context.Context {
	return context.WithValue(ctx, ctxKey{}, k)
}

// KeyFromContext returns the authenticated key, if any.
func KeyFromContext(ctx context.Context) (*APIKey, bool) {
	k, ok := ctx.Value(ctxKey{}).(*APIKey)
	return k, ok && k != nil
}
