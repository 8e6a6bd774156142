package auth

import "context"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentityContext stores the authenticated username in ctx
func WithIdentityContext(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, identityCtxKey, username)
}

// IdentityFromContext returns the username stored by WithIdentityContext
func IdentityFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(identityCtxKey).(string)
	return raw, ok && raw != ""
}
