// Package httpapi exposes the ledger over an HTTP JSON API: routing,
// authentication middleware, throttling and request/response mapping.
package httpapi

import "context"

type ctxKey int

const userCtxKey ctxKey = iota

// AuthUser is the identity attached to a request by the auth middleware.
// Token is the raw bearer credential the identity was derived from.
type AuthUser struct {
	ID    int64
	Email string
	Token string
}

// WithUser returns a context carrying the authenticated identity.
func WithUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// CurrentUser extracts the authenticated identity; ok is false when the
// request carried no valid token.
func CurrentUser(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(userCtxKey).(AuthUser)
	return user, ok
}
