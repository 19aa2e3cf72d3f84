package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is the type of request context keys set by the API layer.
type ContextKey string

const (
	// UserIDContextKey holds the authenticated owner id (int64).
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey holds the request trace id.
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID returns a copy of ctx carrying a fresh trace id.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID returns the trace id of ctx, or "" if none was set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// SetUserID returns a copy of ctx carrying the authenticated owner id.
func SetUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserID returns the authenticated owner id. ok is false when the
// request was not authenticated.
func GetUserID(ctx context.Context) (userID int64, ok bool) {
	userID, ok = ctx.Value(UserIDContextKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

// newTraceID returns 32 hex characters.
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
