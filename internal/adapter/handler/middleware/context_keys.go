package middleware

import "context"

// ContextKey keeps our context values from colliding with other packages.
type ContextKey string

const (
	UserIDCtxKey   = ContextKey("user_id")
	UserRoleCtxKey = ContextKey("user_role")
)

// UserFromContext returns the authenticated user id and role set by JWTAuth.
func UserFromContext(ctx context.Context) (userID, role string, ok bool) {
	userID, ok = ctx.Value(UserIDCtxKey).(string)
	if !ok || userID == "" {
		return "", "", false
	}
	role, _ = ctx.Value(UserRoleCtxKey).(string)
	return userID, role, true
}

func WithUser(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDCtxKey, userID)
	return context.WithValue(ctx, UserRoleCtxKey, role)
}
