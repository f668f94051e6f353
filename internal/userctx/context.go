// Package userctx carries the acting household user through a request context.
package userctx

import (
	"context"
	"strings"
)

type userKey struct{}

// WithUserID returns a context acting as userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// GetUserID returns the acting user. Blank ids count as absent.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", false
	}
	return userID, true
}
