package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLayout has rows of height 1 starting at y=0.
type fakeLayout struct {
	completed []bool
	scroll    int
}

func (f *fakeLayout) Len() int               { return len(f.completed) }
func (f *fakeLayout) IsCompleted(i int) bool { return f.completed[i] }
func (f *fakeLayout) RowAt(y float64) (int, bool) {
	i := int(math.Floor(y)) + f.scroll
	return i, i >= 0 && i < len(f.completed)
}

func TestReorder_CommitMove(t *testing.T) {
	l := &fakeLayout{completed: []bool{false, false, false, true}}
	var r Reorder

	require.True(t, r.Begin(l, 0.5))
	assert.Equal(t, LiftScale, r.Session().Scale)

	assert.True(t, r.Drag(l, 1.2))
	assert.True(t, r.Drag(l, 2.2))
	assert.Equal(t, []int{1, 2, 0, 3}, r.Session().Order)

	mv, ok := r.End(l, EndReleased)
	require.True(t, ok)
	assert.Equal(t, Move{From: 0, To: 2}, mv)
	assert.Equal(t, ReorderIdle, r.State())
	assert.Nil(t, r.Session())
}

func TestReorder_CompletedDestinationIsNoop(t *testing.T) {
	l := &fakeLayout{completed: []bool{false, false, true}}
	var r Reorder

	require.True(t, r.Begin(l, 0))
	assert.False(t, r.Drag(l, 2.5), "completed rows are not destinations")
	assert.False(t, r.Drag(l, 10), "below the last row maps to the last row")
	assert.Equal(t, []int{0, 1, 2}, r.Session().Order)

	_, ok := r.End(l, EndReleased)
	assert.False(t, ok)
}

func TestReorder_BeginGuards(t *testing.T) {
	l := &fakeLayout{completed: []bool{false, true}}
	var r Reorder
	assert.False(t, r.Begin(l, 1), "completed row cannot be lifted")
	assert.False(t, r.Begin(l, 9), "no row under pointer")

	s := NewSwipe(iconWidth)
	s.Begin(true, false)
	assert.False(t, ShouldBeginReorder(s))
	s.End()
	s.Finish()
	assert.True(t, ShouldBeginReorder(s))
}

func TestReorder_CancelSharesCleanup(t *testing.T) {
	l := &fakeLayout{completed: []bool{false, false}}
	var r Reorder
	require.True(t, r.Begin(l, 1))
	r.Drag(l, 0)

	mv, ok := r.End(l, EndCancelled)
	assert.True(t, ok)
	assert.Equal(t, Move{From: 1, To: 0}, mv)
}

func TestReorder_StaleTicksDropped(t *testing.T) {
	l := &fakeLayout{completed: []bool{false, false, false}}
	var r Reorder
	require.True(t, r.Begin(l, 0))
	gen := r.Generation()
	assert.True(t, r.Tick(gen))

	r.End(l, EndReleased)
	assert.False(t, r.Tick(gen))

	require.True(t, r.Begin(l, 0))
	assert.False(t, r.Tick(gen), "ticks from a previous drag stay stale")
}

func TestAutoscrollDirection(t *testing.T) {
	assert.Equal(t, -1, AutoscrollDirection(0, 20, 1))
	assert.Equal(t, 0, AutoscrollDirection(10, 20, 1))
	assert.Equal(t, 1, AutoscrollDirection(19, 20, 1))
}

func TestApplyOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, ApplyOrder([]string{"a", "b", "c"}, []int{1, 0, 2}))
}

func TestReorder_DragOutsideRowsClamps(t *testing.T) {
	l := &fakeLayout{completed: []bool{false, false, false}}
	var r Reorder

	require.True(t, r.Begin(l, 1.5))

	assert.True(t, r.Drag(l, -0.5))
	assert.Equal(t, 0, r.Session().Destination)
	assert.Equal(t, []int{1, 0, 2}, r.Session().Order)

	assert.True(t, r.Drag(l, 9))
	assert.Equal(t, 2, r.Session().Destination)
	assert.Equal(t, []int{1, 2, 0}, r.Session().Order)

	t.Run("below the rows stops above completed ones", func(t *testing.T) {
		l := &fakeLayout{completed: []bool{false, false, true}}
		var r Reorder

		require.True(t, r.Begin(l, 0.5))
		assert.False(t, r.Drag(l, 9))
		assert.Equal(t, 0, r.Session().Destination)
	})
}
