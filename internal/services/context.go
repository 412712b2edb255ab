package services

import "context"

type userIDKey struct{}

// WithUserID stores the authenticated user id on the context. The id comes
// from the external auth collaborator and is treated as an opaque string.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
