package auth

import (
	"context"

	"reportflow/internal/models"
)

type ctxKey string

const (
	userKey    ctxKey = "currentUser"
	sessionKey ctxKey = "sessionID"
)

func WithUser(ctx context.Context, u *models.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, sessionKey, sessionID)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}

func SessionIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(sessionKey).(string)
	return s
}

// Subject returns the authenticated user's id, or "".
func Subject(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}

func HasRole(ctx context.Context, roles ...models.Role) bool {
	u := UserFromContext(ctx)
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
