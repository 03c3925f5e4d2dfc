// Package kv defines a small persistent key-value store used for UI state
// that outlives a session, such as the most recently opened list.
package kv

import "context"

// KV stores JSON-encoded values by key. Get on a missing key returns an
// error wrapping sql.ErrNoRows.
type KV interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}
