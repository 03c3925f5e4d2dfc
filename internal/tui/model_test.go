package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tasks/internal/core/gesture"
	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/data/stores"
	"github.com/colonyops/tasks/internal/tasks"
	"github.com/colonyops/tasks/pkg/tuitest"
)

type harness struct {
	db    *db.DB
	store *stores.TaskStore
	app   *tasks.App
}

func newHarness(t *testing.T, texts ...string) (Model, *harness) {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	store := stores.NewTaskStore(database)
	_, err = store.EnsureDefaultList(ctx, "My Tasks")
	require.NoError(t, err)

	coll, err := store.OpenTasks(ctx, task.DefaultListID)
	require.NoError(t, err)
	require.NoError(t, coll.Write(ctx, func(tx task.Tx) error {
		for _, text := range texts {
			if _, err := tx.Insert(tx.Len(), text); err != nil {
				return err
			}
		}
		return nil
	}))

	app, err := tasks.NewApp(ctx, store, stores.NewKVStore(database), tasks.AppOptions{})
	require.NoError(t, err)
	t.Cleanup(app.Close)

	m := New(ctx, app, Options{Scale: 10})
	m = update(m, tuitest.WindowSize(40, 12))
	return m, &harness{db: database, store: store, app: app}
}

// openTasks switches the harness to the default list's tasks screen.
func openTasks(t *testing.T, m Model) Model {
	t.Helper()
	require.NoError(t, m.app.OpenList(m.ctx, task.DefaultListID))
	return m
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func (h *harness) texts(t *testing.T) []string {
	t.Helper()
	got, err := h.store.ListTasks(context.Background(), task.DefaultListID)
	require.NoError(t, err)
	out := make([]string, len(got))
	for i, tk := range got {
		out[i] = tk.Text
	}
	return out
}

func (h *harness) completed(t *testing.T) map[string]bool {
	t.Helper()
	got, err := h.store.ListTasks(context.Background(), task.DefaultListID)
	require.NoError(t, err)
	out := map[string]bool{}
	for _, tk := range got {
		out[tk.Text] = tk.Completed
	}
	return out
}

// row returns the screen line of the i-th visible row.
func row(i int) int { return bodyTop + i }

func TestModel_View(t *testing.T) {
	m, _ := newHarness(t, "Buy milk", "Walk dog")

	out := tuitest.StripANSI(m.View())
	assert.Contains(t, out, "Lists")
	assert.Contains(t, out, "My Tasks")
	assert.Contains(t, out, "2", "remaining badge")

	m = openTasks(t, m)
	out = tuitest.StripANSI(m.View())
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "Walk dog")
	assert.Contains(t, out, "complete")
}

func TestModel_KeyboardComplete(t *testing.T) {
	m, h := newHarness(t, "a", "b", "c")
	m = openTasks(t, m)

	m = update(m, tuitest.KeyPress(' '))

	assert.Equal(t, []string{"b", "c", "a"}, h.texts(t))
	assert.True(t, h.completed(t)["a"])
	assert.Equal(t, 2, m.cursor, "cursor follows the completed row")
}

func TestModel_KeyboardMoveAndDelete(t *testing.T) {
	m, h := newHarness(t, "a", "b", "c")
	m = openTasks(t, m)

	m = update(m, tuitest.KeyPress('J'))
	assert.Equal(t, []string{"b", "a", "c"}, h.texts(t))
	assert.Equal(t, 1, m.cursor)

	m = update(m, tuitest.KeyPress('d'))
	assert.Equal(t, []string{"b", "c"}, h.texts(t))
	assert.Equal(t, 1, m.cursor)
}

func TestModel_SwipeRightCompletes(t *testing.T) {
	m, h := newHarness(t, "a", "b", "c")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(2, row(0)))
	m = update(m, tuitest.Drag(9, row(0)))
	assert.Equal(t, pointerSwipe, m.ptr.mode)

	v := m.current().View()
	assert.Equal(t, gesture.ActionComplete, v.Rows[0].Presentation.Action)

	m = update(m, tuitest.Release(9, row(0)))
	assert.Equal(t, pointerIdle, m.ptr.mode)
	assert.Equal(t, []string{"b", "c", "a"}, h.texts(t))
	assert.True(t, h.completed(t)["a"])
}

func TestModel_SwipeLeftDeletes(t *testing.T) {
	m, h := newHarness(t, "a", "b")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(20, row(1)))
	m = update(m, tuitest.Drag(7, row(1)))
	m = update(m, tuitest.Release(7, row(1)))

	assert.Equal(t, []string{"a"}, h.texts(t))
}

func TestModel_ShortSwipeDoesNothing(t *testing.T) {
	m, h := newHarness(t, "a", "b")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(2, row(0)))
	m = update(m, tuitest.Drag(5, row(0)))
	m = update(m, tuitest.Release(5, row(0)))

	assert.Equal(t, []string{"a", "b"}, h.texts(t))
	assert.False(t, h.completed(t)["a"])
}

func TestModel_PullToCreate(t *testing.T) {
	m, h := newHarness(t, "a")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(5, row(0)))
	m = update(m, tuitest.Drag(5, row(2)))
	assert.Contains(t, tuitest.StripANSI(m.View()), gesture.PlaceholderReleaseToCreate.Label())

	m = update(m, tuitest.Release(5, row(2)))
	_, editing := m.current().Editing()
	require.True(t, editing)

	m = update(m, tuitest.KeyPressString("milk"))
	m = update(m, tuitest.KeyEnter())

	_, editing = m.current().Editing()
	assert.False(t, editing)
	assert.Equal(t, []string{"milk", "a"}, h.texts(t))
}

func TestModel_PullPastTwoRowsReturnsToLists(t *testing.T) {
	m, _ := newHarness(t, "a")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(5, row(0)))
	m = update(m, tuitest.Drag(5, row(3)))
	assert.Contains(t, tuitest.StripANSI(m.View()), gesture.PlaceholderSwitchToParent.Label())

	m = update(m, tuitest.Release(5, row(3)))
	assert.Equal(t, tasks.ScreenLists, m.app.Screen())
}

func TestModel_LongPressReorders(t *testing.T) {
	m, h := newHarness(t, "a", "b", "c")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(5, row(0)))
	m = update(m, longPressMsg{seq: m.ptr.seq})
	require.Equal(t, pointerReorder, m.ptr.mode)
	assert.True(t, m.current().Reordering())

	m = update(m, tuitest.Drag(5, row(2)))
	m = update(m, tuitest.Release(5, row(2)))

	assert.False(t, m.current().Reordering())
	assert.Equal(t, []string{"b", "c", "a"}, h.texts(t))
}

func TestModel_StaleLongPressIgnored(t *testing.T) {
	m, _ := newHarness(t, "a", "b")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(5, row(0)))
	seq := m.ptr.seq
	m = update(m, tuitest.Release(5, row(0)))
	m = update(m, longPressMsg{seq: seq})

	assert.Equal(t, pointerIdle, m.ptr.mode)
	assert.False(t, m.current().Reordering())

	id, editing := m.current().Editing()
	assert.True(t, editing, "a tap edits the row")
	assert.Equal(t, m.current().Rows()[0].ID, id)
}

func TestModel_StaleAutoscrollTickIgnored(t *testing.T) {
	m, _ := newHarness(t, "a", "b")
	m = openTasks(t, m)

	m = update(m, tuitest.Press(5, row(0)))
	m = update(m, longPressMsg{seq: m.ptr.seq})
	gen := m.current().ReorderGeneration()
	m = update(m, tuitest.Release(5, row(0)))

	next, cmd := m.Update(autoscrollMsg{gen: gen})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).ptr.autoscrolls)
}

func TestModel_TapEmptySpaceInsertsAtBoundary(t *testing.T) {
	m, h := newHarness(t, "a", "b")
	m = openTasks(t, m)
	m = update(m, tuitest.KeyPress(' '))
	require.Equal(t, []string{"b", "a"}, h.texts(t))

	m = update(m, tuitest.Press(5, row(6)))
	m = update(m, tuitest.Release(5, row(6)))
	_, editing := m.current().Editing()
	require.True(t, editing)
	assert.Equal(t, []string{"b", "", "a"}, h.texts(t))

	m = update(m, tuitest.KeyEsc())
	_, editing = m.current().Editing()
	assert.False(t, editing)
	assert.Equal(t, []string{"b", "a"}, h.texts(t), "cancelling a new row removes it")
}

func TestModel_EditEmptyTextDeletes(t *testing.T) {
	m, h := newHarness(t, "a", "b")
	m = openTasks(t, m)

	m = update(m, tuitest.KeyPress('e'))
	m = update(m, tuitest.KeyBackspace())
	m = update(m, tuitest.KeyEnter())

	assert.Equal(t, []string{"b"}, h.texts(t))
}

func TestModel_TapListRow(t *testing.T) {
	t.Run("right half opens", func(t *testing.T) {
		m, _ := newHarness(t, "a")
		m = update(m, tuitest.Press(30, row(0)))
		m = update(m, tuitest.Release(30, row(0)))
		assert.Equal(t, tasks.ScreenTasks, m.app.Screen())
	})

	t.Run("left half edits", func(t *testing.T) {
		m, _ := newHarness(t, "a")
		m = update(m, tuitest.Press(3, row(0)))
		m = update(m, tuitest.Release(3, row(0)))
		assert.Equal(t, tasks.ScreenLists, m.app.Screen())
		_, editing := m.current().Editing()
		assert.True(t, editing)
	})
}

func TestModel_BackKey(t *testing.T) {
	m, _ := newHarness(t, "a")
	m = update(m, tuitest.KeyEnter())
	require.Equal(t, tasks.ScreenTasks, m.app.Screen())

	m = update(m, tuitest.KeyPress('h'))
	assert.Equal(t, tasks.ScreenLists, m.app.Screen())
}

func TestModel_ClearCompleted(t *testing.T) {
	m, h := newHarness(t, "a", "b")
	m = openTasks(t, m)
	m = update(m, tuitest.KeyPress(' '))

	m = update(m, tuitest.KeyPress('C'))
	assert.Equal(t, []string{"b"}, h.texts(t))
	require.False(t, m.status.empty())
	assert.Equal(t, "1 item cleared", m.status.msgs[0].text)
}

func TestModel_WriteFailureShowsStatus(t *testing.T) {
	m, h := newHarness(t, "a")
	m = openTasks(t, m)
	require.NoError(t, h.db.Close())

	m = update(m, tuitest.KeyPress('x'))

	require.False(t, m.status.empty())
	assert.Equal(t, statusError, m.status.msgs[0].level)
	assert.Equal(t, pointerIdle, m.ptr.mode)
}

func TestModel_HelpOverlay(t *testing.T) {
	m, _ := newHarness(t)

	m = update(m, tuitest.KeyPress('?'))
	assert.True(t, m.showHelp)
	assert.Contains(t, tuitest.StripANSI(m.View()), "Gestures")

	m = update(m, tuitest.KeyPress('j'))
	assert.False(t, m.showHelp)
}

func TestModel_WheelScroll(t *testing.T) {
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}
	m, _ := newHarness(t, texts...)
	m = openTasks(t, m)

	m = update(m, tuitest.Wheel(1))
	assert.InDelta(t, 1.0, m.current().Scroll(), 0.001)

	m = update(m, tuitest.Wheel(-1))
	m = update(m, tuitest.Wheel(-1))
	assert.InDelta(t, 0.0, m.current().Scroll(), 0.001)
}
