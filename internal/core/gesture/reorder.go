package gesture

// RowLayout answers the geometry questions the reorder machine asks. Y values
// are pointer positions in viewport coordinates; the layout accounts for the
// current scroll offset.
type RowLayout interface {
	Len() int
	// IsCompleted reports whether the underlying item at index i is
	// completed. The underlying order does not change during a drag.
	IsCompleted(i int) bool
	// RowAt returns the index of the row under y and whether y is inside a
	// row. Outside every row the index is still the unclamped row position:
	// negative above the first row, Len() or more below the last.
	RowAt(y float64) (int, bool)
}

// ReorderState is the lifecycle of one long-press drag.
type ReorderState int

const (
	ReorderIdle ReorderState = iota
	ReorderBegun
	ReorderDragging
	ReorderEnded
)

// EndReason records how a reorder drag finished. All reasons share one
// cleanup path.
type EndReason int

const (
	EndReleased EndReason = iota
	EndCancelled
	EndFailed
)

// Move is a committed single index move.
type Move struct {
	From int
	To   int
}

// Lifted snapshot styling.
const (
	LiftScale         = 1.05
	LiftShadowOpacity = 1.0
)

// ReorderSession is the transient state of one drag.
type ReorderSession struct {
	Source      int
	Destination int
	// PointerY is the last known pointer position, reused by autoscroll.
	PointerY float64
	// Order maps display position to underlying index while rows are
	// visually moved. It is the identity permutation when nothing moved.
	Order []int

	Scale         float64
	ShadowOpacity float64
}

// Reorder is the long-press reorder state machine:
//
//	Idle -> Begun -> Dragging -> Ended -> Idle
//
// Cancelled and failed drags take the same path as a release.
type Reorder struct {
	state      ReorderState
	session    *ReorderSession
	generation uint64
}

// State returns the current state.
func (r *Reorder) State() ReorderState { return r.state }

// Active reports whether a drag is in progress.
func (r *Reorder) Active() bool { return r.state == ReorderBegun || r.state == ReorderDragging }

// Session returns the live session, or nil when idle.
func (r *Reorder) Session() *ReorderSession { return r.session }

// Generation identifies the current drag. Autoscroll ticks carry the value
// they were scheduled with and are ignored once it changes.
func (r *Reorder) Generation() uint64 { return r.generation }

// ShouldBeginReorder is the precedence rule between recognizers: a reorder
// may not start on a row that is being swiped.
func ShouldBeginReorder(swipe *Swipe) bool {
	return swipe == nil || !swipe.Active()
}

// Begin lifts the row under y. It refuses when a drag is already active, when
// y is not over a row, or when that row is completed.
func (r *Reorder) Begin(layout RowLayout, y float64) bool {
	if r.Active() {
		return false
	}
	idx, ok := layout.RowAt(y)
	if !ok || layout.IsCompleted(idx) {
		return false
	}

	order := make([]int, layout.Len())
	for i := range order {
		order[i] = i
	}

	r.generation++
	r.state = ReorderBegun
	r.session = &ReorderSession{
		Source:        idx,
		Destination:   idx,
		PointerY:      y,
		Order:         order,
		Scale:         LiftScale,
		ShadowOpacity: LiftShadowOpacity,
	}
	return true
}

// Drag moves the snapshot to y and, when the row under it is a valid new
// destination, live-moves the dragged row there. It reports whether the
// visual order changed.
func (r *Reorder) Drag(layout RowLayout, y float64) bool {
	if !r.Active() {
		return false
	}
	r.state = ReorderDragging
	s := r.session
	s.PointerY = y

	n := layout.Len()
	if n == 0 {
		return false
	}
	idx, _ := layout.RowAt(y)
	idx = clamp(idx, 0, n-1)

	if idx == s.Destination || layout.IsCompleted(idx) {
		return false
	}

	s.Order = moveIndex(s.Order, s.Destination, idx)
	s.Destination = idx
	return true
}

// End finishes the drag for any reason. It returns the move to commit, if
// any, and invalidates pending autoscroll ticks before returning.
func (r *Reorder) End(layout RowLayout, _ EndReason) (Move, bool) {
	if !r.Active() {
		return Move{}, false
	}
	r.generation++
	r.state = ReorderEnded
	s := r.session

	var (
		mv     Move
		commit bool
	)
	if s.Destination != s.Source && s.Destination < layout.Len() && !layout.IsCompleted(s.Destination) {
		mv = Move{From: s.Source, To: s.Destination}
		commit = true
	}

	r.session = nil
	r.state = ReorderIdle
	return mv, commit
}

// Tick reports whether an autoscroll tick scheduled under gen is still
// current. Stale ticks must be dropped without touching any state.
func (r *Reorder) Tick(gen uint64) bool {
	return r.Active() && gen == r.generation
}

// AutoscrollDirection returns -1 when y is within margin of the top of a
// viewport of the given height, 1 near the bottom, and 0 otherwise.
func AutoscrollDirection(y, height, margin float64) int {
	switch {
	case y < margin:
		return -1
	case y >= height-margin:
		return 1
	default:
		return 0
	}
}

// ApplyOrder returns items rearranged by a session's display order.
func ApplyOrder[T any](items []T, order []int) []T {
	if len(order) != len(items) {
		return items
	}
	out := make([]T, len(items))
	for display, src := range order {
		out[display] = items[src]
	}
	return out
}

func moveIndex(order []int, from, to int) []int {
	out := make([]int, 0, len(order))
	v := order[from]
	for i, x := range order {
		if i != from {
			out = append(out, x)
		}
	}
	out = append(out, 0)
	copy(out[to+1:], out[to:])
	out[to] = v
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
