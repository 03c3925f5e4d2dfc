// Package logging provides zerolog helpers shared by every component.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Collection creates a component logger tagged with the kind of collection
// and the owning list, if any.
func Collection(kind, listID string) zerolog.Logger {
	ctx := log.With().Str("cmp", "collection").Str("kind", kind)
	if listID != "" {
		ctx = ctx.Str("list_id", listID)
	}
	return ctx.Logger().Hook(ContextHook{})
}
