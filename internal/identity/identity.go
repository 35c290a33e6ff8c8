// Package identity carries the acting user through a request context.
package identity

import "context"

type contextKey struct{}

// WithUser returns a copy of ctx acting as userID.
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserFrom returns the acting user of ctx, or nil when anonymous.
func UserFrom(ctx context.Context) *int64 {
	if id, ok := ctx.Value(contextKey{}).(int64); ok && id != 0 {
		return &id
	}
	return nil
}
