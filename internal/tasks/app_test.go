package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tasks/internal/core/gesture"
	"github.com/colonyops/tasks/internal/core/kv"
	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/core/task/tasktest"
	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/data/stores"
)

type memKV map[string][]byte

var _ kv.KV = memKV{}

func (m memKV) Get(_ context.Context, key string, dest any) error {
	v, ok := m[key]
	if !ok {
		return fmt.Errorf("kv get %q: %w", key, sql.ErrNoRows)
	}
	return json.Unmarshal(v, dest)
}

func (m memKV) Set(_ context.Context, key string, value any) error {
	v, err := json.Marshal(value)
	m[key] = v
	return err
}

func (m memKV) Delete(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

type memSource struct {
	lists *tasktest.Memory
	tasks map[string]*tasktest.Memory
}

func (s *memSource) OpenLists(context.Context) (task.Collection, error) { return s.lists, nil }

func (s *memSource) OpenTasks(_ context.Context, id string) (task.Collection, error) {
	m, ok := s.tasks[id]
	if !ok {
		return nil, task.ErrNotFound
	}
	return m, nil
}

func newMemSource() *memSource {
	return &memSource{
		lists: tasktest.NewRows(task.KindLists,
			task.Row{ID: "home", Text: "Home", Completable: true, Badge: 1},
			task.Row{ID: "work", Text: "Work", Completed: true, Badge: 0},
		),
		tasks: map[string]*tasktest.Memory{
			"home": tasktest.New("Dishes"),
			"work": tasktest.New(),
		},
	}
}

func TestApp_Navigation(t *testing.T) {
	ctx := context.Background()
	src := newMemSource()
	store := memKV{}

	app, err := NewApp(ctx, src, store, AppOptions{})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, ScreenLists, app.Screen())

	require.NoError(t, app.OpenList(ctx, "home"))
	assert.Equal(t, ScreenTasks, app.Screen())
	assert.Equal(t, []string{"Dishes"}, state(app.Current().Rows()))

	var last string
	require.NoError(t, store.Get(ctx, "nav:last_list", &last))
	assert.Equal(t, "home", last)

	t.Run("pull past two rows goes up", func(t *testing.T) {
		app.Current().Pull(2.5, 0, true)
		intent, err := app.EndPull(ctx)
		require.NoError(t, err)
		assert.Equal(t, gesture.IntentNavigateUp, intent)
		assert.Equal(t, ScreenLists, app.Screen())
		assert.Equal(t, 0, src.tasks["home"].Subscribers())
	})

	t.Run("pull up on lists opens last list", func(t *testing.T) {
		app.Current().Pull(0, 1.5, true)
		intent, err := app.EndPull(ctx)
		require.NoError(t, err)
		assert.Equal(t, gesture.IntentNavigateDown, intent)
		assert.Equal(t, ScreenTasks, app.Screen())
	})

	t.Run("missing list", func(t *testing.T) {
		err := app.OpenList(ctx, "nope")
		require.ErrorIs(t, err, task.ErrNotFound)
	})
}

func TestApp_PullUpWithoutLastList(t *testing.T) {
	ctx := context.Background()
	src := newMemSource()

	app, err := NewApp(ctx, src, memKV{}, AppOptions{})
	require.NoError(t, err)
	defer app.Close()

	app.Current().Pull(0, 1.5, true)
	intent, err := app.EndPull(ctx)
	require.NoError(t, err)
	assert.Equal(t, gesture.IntentDeleteCompleted, intent)
	assert.Equal(t, []string{"Home"}, state(src.lists.Rows()))
}

func TestApp_StaleLastListIsForgotten(t *testing.T) {
	ctx := context.Background()
	store := memKV{}
	require.NoError(t, store.Set(ctx, "nav:last_list", "gone"))

	app, err := NewApp(ctx, newMemSource(), store, AppOptions{})
	require.NoError(t, err)
	defer app.Close()

	_, ok := store["nav:last_list"]
	assert.False(t, ok)
}

func TestApp_InvalidatedListReturnsToLists(t *testing.T) {
	ctx := context.Background()
	src := newMemSource()

	app, err := NewApp(ctx, src, memKV{}, AppOptions{})
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.OpenList(ctx, "home"))
	src.tasks["home"].Invalidate()
	require.NoError(t, app.Refresh(ctx))
	assert.Equal(t, ScreenLists, app.Screen())
}

func TestApp_SQLite(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	store := stores.NewTaskStore(database)
	_, err = store.EnsureDefaultList(ctx, "My Tasks")
	require.NoError(t, err)

	app, err := NewApp(ctx, store, stores.NewKVStore(database), AppOptions{})
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.OpenList(ctx, task.DefaultListID))
	c := app.Current()
	assert.Equal(t, "My Tasks", c.Title())

	id, err := c.CreateAtHead(ctx)
	require.NoError(t, err)
	require.NoError(t, c.CommitEdit(ctx, "Buy milk"))
	require.NoError(t, c.CompleteItem(ctx, id))

	lists := app.Lists().Rows()
	require.Len(t, lists, 1)
	assert.Equal(t, 0, lists[0].Badge, "lists refreshed after a task write")
	assert.False(t, lists[0].Completable)

	got, err := store.ListTasks(ctx, task.DefaultListID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Completed)
}
