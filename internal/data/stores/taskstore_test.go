package stores

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tasks/internal/core/task"
)

func addLists(t *testing.T, c *Collection, names ...string) []task.Row {
	t.Helper()
	var rows []task.Row
	err := c.Write(context.Background(), func(tx task.Tx) error {
		for _, name := range names {
			r, err := tx.Insert(tx.Len(), name)
			if err != nil {
				return err
			}
			rows = append(rows, r)
		}
		return nil
	})
	require.NoError(t, err)
	return rows
}

func TestTaskStore_EnsureDefaultList(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(openTestDB(t))

	created, err := store.EnsureDefaultList(ctx, "My Tasks")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureDefaultList(ctx, "My Tasks")
	require.NoError(t, err)
	assert.False(t, created, "second call is a no-op")

	l, err := store.GetList(ctx, task.DefaultListID)
	require.NoError(t, err)
	assert.Equal(t, "My Tasks", l.Text)
}

func TestTaskStore_GetListNotFound(t *testing.T) {
	store := NewTaskStore(openTestDB(t))
	_, err := store.GetList(context.Background(), "missing")
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestTaskStore_TasksNotFound(t *testing.T) {
	store := NewTaskStore(openTestDB(t))
	_, err := store.Tasks(context.Background(), "missing")
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestTaskStore_FindList(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore(openTestDB(t))
	lists, err := store.Lists(ctx)
	require.NoError(t, err)
	rows := addLists(t, lists, "Groceries", "Work", "groceries old")

	t.Run("by id", func(t *testing.T) {
		l, err := store.FindList(ctx, rows[1].ID)
		require.NoError(t, err)
		assert.Equal(t, "Work", l.Text)
	})

	t.Run("by name ignores case", func(t *testing.T) {
		l, err := store.FindList(ctx, "groceries")
		require.NoError(t, err)
		assert.Equal(t, rows[0].ID, l.ID)
	})

	t.Run("by id prefix", func(t *testing.T) {
		l, err := store.FindList(ctx, strings.ToUpper(rows[2].ID[:8]))
		require.NoError(t, err)
		assert.Equal(t, "groceries old", l.Text)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.FindList(ctx, "nope")
		require.ErrorIs(t, err, task.ErrNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := store.FindList(ctx, "  ")
		require.ErrorIs(t, err, task.ErrNotFound)
	})
}

func TestTaskStore_Hidden(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	all := NewTaskStore(d)
	lists, err := all.Lists(ctx)
	require.NoError(t, err)
	addLists(t, lists, "Work", "archive/2023")

	store := NewTaskStore(d, WithHidden(func(name string) bool {
		return strings.HasPrefix(name, "archive/")
	}))

	got, err := store.ListLists(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Work", got[0].Text)

	visible, err := store.Lists(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Work"}, texts(visible.Rows()))
}

func TestTaskStore_ListTasks(t *testing.T) {
	ctx := context.Background()
	store, c := newTaskCollection(t)
	seedTasks(t, c, "a", "b")
	require.NoError(t, c.Write(ctx, func(tx task.Tx) error { return tx.SetCompleted(0, true) }))

	tasks, err := store.ListTasks(ctx, task.DefaultListID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Text)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, task.DefaultListID, tasks[0].ListID)

	l, err := store.GetList(ctx, task.DefaultListID)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Remaining)
	assert.Equal(t, 2, l.Total)
}

func TestTaskStore_DeleteListCascades(t *testing.T) {
	ctx := context.Background()
	store, c := newTaskCollection(t)
	seedTasks(t, c, "a")

	lists, err := store.Lists(ctx)
	require.NoError(t, err)
	require.NoError(t, lists.Write(ctx, func(tx task.Tx) error { return tx.Remove(0) }))

	tasks, err := store.ListTasks(ctx, task.DefaultListID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
