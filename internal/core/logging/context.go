package logging

import "context"

type contextKey string

const (
	listIDKey  contextKey = "list_id"
	gestureKey contextKey = "gesture"
)

// WithListID adds the ID of the list being worked on to the context.
func WithListID(ctx context.Context, listID string) context.Context {
	return context.WithValue(ctx, listIDKey, listID)
}

// WithGesture adds the name of the gesture that triggered a write.
func WithGesture(ctx context.Context, gesture string) context.Context {
	return context.WithValue(ctx, gestureKey, gesture)
}

// GetListID retrieves the list ID from the context.
// Returns empty string if not present.
func GetListID(ctx context.Context) string {
	if id, ok := ctx.Value(listIDKey).(string); ok {
		return id
	}
	return ""
}

// GetGesture retrieves the gesture name from the context.
// Returns empty string if not present.
func GetGesture(ctx context.Context) string {
	if g, ok := ctx.Value(gestureKey).(string); ok {
		return g
	}
	return ""
}
