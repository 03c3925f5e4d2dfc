package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tasks/internal/core/account"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore(openTestDB(t))

	_, err := store.Current(ctx)
	require.ErrorIs(t, err, account.ErrNotLoggedIn)

	require.NoError(t, store.Save(ctx, account.User{Username: "ada", Token: "t1"}))
	require.NoError(t, store.Save(ctx, account.User{Username: "bob", Token: "t2"}))

	u, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "t2", u.Token)
	assert.False(t, u.CreatedAt.IsZero())

	require.NoError(t, store.Clear(ctx))
	_, err = store.Current(ctx)
	require.ErrorIs(t, err, account.ErrNotLoggedIn)
}
