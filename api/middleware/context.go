package middleware

import (
	"context"
	"strconv"

	"github.com/matespatagonico/storefront/pkg/auth"
)

type contextKey string

const (
	ctxAuth      contextKey = "auth_context"
	ctxSessionID contextKey = "session_id"
)

// WithAuth seeds the request context with the caller's credentials.
func WithAuth(ctx context.Context, ac auth.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxAuth, ac)
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// AuthFromContext returns the caller's credentials, or an anonymous context.
func AuthFromContext(ctx context.Context) auth.Context {
	if ctx == nil {
		return auth.Context{}
	}
	if v, ok := ctx.Value(ctxAuth).(auth.Context); ok {
		return v
	}
	return auth.Context{}
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	ac := AuthFromContext(ctx)
	if ac.UserID <= 0 {
		return ""
	}
	return strconv.FormatInt(ac.UserID, 10)
}
