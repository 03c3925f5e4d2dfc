package tui

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colonyops/tasks/internal/core/gesture"
	"github.com/colonyops/tasks/internal/tasks"
)

type pointerMode int

const (
	pointerIdle pointerMode = iota
	// pointerPending is a press that has not moved far enough to be a swipe
	// or a scroll, and has not been held long enough to lift the row.
	pointerPending
	pointerSwipe
	pointerScroll
	pointerReorder
)

// Minimum horizontal travel, in columns, before a press becomes a swipe.
const swipeSlop = 2

// pointer tracks the left button between press and release.
type pointer struct {
	mode        pointerMode
	startX      int
	startY      int
	lastY       int
	startScroll float64
	rowID       string
	// seq identifies the press a long-press timer belongs to.
	seq         int
	autoscrolls bool
}

type longPressMsg struct{ seq int }

type autoscrollMsg struct{ gen uint64 }

// bodyY converts a screen line to a position inside the list body.
func bodyY(y int) float64 { return float64(y - bodyTop) }

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.Action == tea.MouseActionPress {
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if m.ptr.mode == pointerIdle {
			delta := float64(m.opts.RowHeight)
			if msg.Button == tea.MouseButtonWheelUp {
				delta = -delta
			}
			m.current().ScrollBy(delta, float64(m.bodyHeight()))
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.press(msg)
	case tea.MouseActionMotion:
		if m.ptr.mode == pointerIdle {
			return m, nil
		}
		return m.drag(msg)
	case tea.MouseActionRelease:
		return m.release(msg)
	}
	return m, nil
}

func (m Model) press(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c := m.current()
	if _, editing := c.Editing(); editing {
		// Touching outside the text field ends the edit.
		return m.endEdit(true)
	}

	seq := m.ptr.seq + 1
	m.ptr = pointer{
		mode:        pointerPending,
		startX:      msg.X,
		startY:      msg.Y,
		lastY:       msg.Y,
		startScroll: c.Scroll(),
		seq:         seq,
	}
	if msg.Y < bodyTop {
		return m, nil
	}
	if row, ok := c.RowAt(bodyY(msg.Y)); ok {
		m.ptr.rowID = row.ID
		return m, tea.Tick(m.opts.LongPress, func(_ time.Time) tea.Msg {
			return longPressMsg{seq: seq}
		})
	}
	return m, nil
}

func (m Model) drag(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c := m.current()
	dx, dy := msg.X-m.ptr.startX, msg.Y-m.ptr.startY
	m.ptr.lastY = msg.Y

	if m.ptr.mode == pointerPending {
		switch {
		case abs(dx) >= swipeSlop && abs(dx) > abs(dy) && m.ptr.rowID != "":
			if c.BeginSwipe(m.ptr.rowID) {
				m.ptr.mode = pointerSwipe
			}
		case dy != 0:
			m.ptr.mode = pointerScroll
		}
	}

	switch m.ptr.mode {
	case pointerSwipe:
		c.UpdateSwipe(float64(dx) * m.opts.Scale)
	case pointerScroll:
		m.scrollTo(m.ptr.startScroll - float64(dy))
	case pointerReorder:
		c.DragReorder(bodyY(msg.Y))
		return m, m.maybeAutoscroll()
	}
	return m, nil
}

// scrollTo follows the pointer. Positions outside the content become
// overscroll, which drives the pull gestures.
func (m *Model) scrollTo(target float64) {
	c := m.current()
	h := float64(m.bodyHeight())
	content := float64(len(c.Rows()) * m.opts.RowHeight)
	maxScroll := math.Max(0, content-h)

	switch {
	case target < 0:
		c.ScrollBy(-c.Scroll(), h)
		c.Pull(-target, 0, true)
	case target > maxScroll:
		c.ScrollBy(maxScroll-c.Scroll(), h)
		c.Pull(0, target-maxScroll, true)
	default:
		c.ScrollBy(target-c.Scroll(), h)
		c.Pull(0, 0, true)
	}
}

func (m Model) release(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c := m.current()
	mode := m.ptr.mode
	m.ptr.mode = pointerIdle
	m.ptr.autoscrolls = false

	switch mode {
	case pointerPending:
		return m.tap(msg.X, m.ptr.startY)

	case pointerSwipe:
		id := m.ptr.rowID
		action, err := c.EndSwipe(m.ctx)
		m.log.Debug().Str("action", action.String()).Msg("swipe released")
		m.follow(id)
		return m, m.report(err)

	case pointerReorder:
		_, moved, err := c.EndReorder(m.ctx, gesture.EndReleased)
		if moved {
			m.follow(m.ptr.rowID)
		}
		return m, m.report(err)

	case pointerScroll:
		screen := m.app.Screen()
		intent, err := m.app.EndPull(m.ctx)
		if err != nil {
			return m, m.report(err)
		}
		switch {
		case intent == gesture.IntentCreate:
			id, _ := m.current().Editing()
			return m, m.startEdit(id)
		case m.app.Screen() != screen:
			m.cursor = 0
		case intent == gesture.IntentDeleteCompleted:
			m.clampCursor()
		}
	}
	return m, nil
}

// tap handles a press released without moving: editing a row, opening a
// list from the right half of its row, or inserting into empty space.
func (m Model) tap(x, y int) (tea.Model, tea.Cmd) {
	if y < bodyTop {
		return m, nil
	}
	c := m.current()
	row, ok := c.RowAt(bodyY(y))
	if !ok {
		id, err := c.InsertAtBoundary(m.ctx)
		if err != nil {
			return m, m.report(err)
		}
		return m, m.startEdit(id)
	}

	if m.app.Screen() == tasks.ScreenLists && x >= m.width/2 {
		return m, m.openList(row.ID)
	}
	m.follow(row.ID)
	if c.BeginEdit(row.ID) {
		return m, m.startEdit(row.ID)
	}
	return m, nil
}

func (m Model) handleLongPress(msg longPressMsg) (tea.Model, tea.Cmd) {
	if m.ptr.mode != pointerPending || msg.seq != m.ptr.seq {
		return m, nil
	}
	c := m.current()
	if !c.BeginReorder(bodyY(m.ptr.startY)) {
		return m, nil
	}
	m.ptr.mode = pointerReorder
	m.log.Debug().Str("row_id", m.ptr.rowID).Msg("reorder began")
	return m, m.maybeAutoscroll()
}

// maybeAutoscroll schedules an autoscroll tick when the pointer sits in an
// edge margin and no tick is already pending.
func (m *Model) maybeAutoscroll() tea.Cmd {
	if m.ptr.autoscrolls || m.edgeDirection() == 0 {
		return nil
	}
	m.ptr.autoscrolls = true
	return m.autoscrollTick(m.current().ReorderGeneration())
}

func (m Model) edgeDirection() int {
	return gesture.AutoscrollDirection(bodyY(m.ptr.lastY), float64(m.bodyHeight()), float64(m.opts.AutoscrollMargin))
}

func (m Model) autoscrollTick(gen uint64) tea.Cmd {
	return tea.Tick(m.opts.AutoscrollInterval, func(_ time.Time) tea.Msg {
		return autoscrollMsg{gen: gen}
	})
}

func (m Model) handleAutoscroll(msg autoscrollMsg) (tea.Model, tea.Cmd) {
	c := m.current()
	if m.ptr.mode != pointerReorder || !c.Autoscroll(msg.gen, float64(m.bodyHeight()), float64(m.opts.AutoscrollMargin)) {
		m.ptr.autoscrolls = false
		return m, nil
	}
	if m.edgeDirection() == 0 {
		m.ptr.autoscrolls = false
		return m, nil
	}
	return m, m.autoscrollTick(msg.gen)
}
