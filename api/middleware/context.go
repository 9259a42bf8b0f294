package middleware

import "context"

type contextKey string

const (
	ctxUserID  contextKey = "user_id"
	ctxToken   contextKey = "access_token"
	ctxLoginID contextKey = "login_id"
	ctxGuestID contextKey = "guest_id"
)

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

// TokenFromContext returns the raw bearer token the request was authenticated with.
func TokenFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxToken)
}

func LoginIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxLoginID)
}

func GuestIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxGuestID)
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithGuestID injects the guest cart identifier into the context.
func WithGuestID(ctx context.Context, guestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxGuestID, guestID)
}
