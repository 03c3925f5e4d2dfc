package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts list_id and gesture from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if listID := GetListID(ctx); listID != "" {
		e.Str("list_id", listID)
	}

	if gesture := GetGesture(ctx); gesture != "" {
		e.Str("gesture", gesture)
	}
}
