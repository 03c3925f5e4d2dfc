package kv_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tasks/internal/core/kv"
	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/data/stores"
)

func newTestKV(t *testing.T) kv.KV {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database)
}

func TestScoped(t *testing.T) {
	ctx := context.Background()
	store := newTestKV(t)

	nav := kv.Scoped[string](store, "nav")
	counts := kv.Scoped[int](store, "counts")

	require.NoError(t, nav.Set(ctx, "last_list", "list-1"))
	require.NoError(t, counts.Set(ctx, "last_list", 7))

	got, err := nav.Get(ctx, "last_list")
	require.NoError(t, err)
	assert.Equal(t, "list-1", got)
	assert.Equal(t, 7, counts.GetOr(ctx, "last_list", 0))

	var raw string
	require.NoError(t, store.Get(ctx, "nav:last_list", &raw))
	assert.Equal(t, "list-1", raw)
}

func TestScoped_MissingAndDelete(t *testing.T) {
	ctx := context.Background()
	nav := kv.Scoped[string](newTestKV(t), "nav")

	_, err := nav.Get(ctx, "last_list")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.Equal(t, "fallback", nav.GetOr(ctx, "last_list", "fallback"))

	require.NoError(t, nav.Set(ctx, "last_list", "x"))
	require.NoError(t, nav.Delete(ctx, "last_list"))
	assert.Empty(t, nav.GetOr(ctx, "last_list", ""))
}
