package middleware

import (
	"context"

	"github.com/angelmondragon/sweetdelights-backend/pkg/enums"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxUserID    contextKey = "user_id"
	ctxRole      contextKey = "actor_role"
	ctxAccessID  contextKey = "access_id"
)

// SessionIDFromContext returns the browser session the request operates on.
func SessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxSessionID)
}

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// AccessIDFromContext returns the jti of the bearer token, if any.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

// WithSessionID injects the session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

func WithRole(ctx context.Context, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
