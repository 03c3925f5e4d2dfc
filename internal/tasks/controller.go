// Package tasks implements the list screen controller shared by the lists and
// tasks screens, and the navigator that moves between them. The controller
// is front-end agnostic: it turns gesture machine output into writes against
// a task.Collection and exposes a render-ready View.
package tasks

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"github.com/colonyops/tasks/internal/core/config"
	"github.com/colonyops/tasks/internal/core/gesture"
	"github.com/colonyops/tasks/internal/core/gradient"
	"github.com/colonyops/tasks/internal/core/logging"
	"github.com/colonyops/tasks/internal/core/task"
)

// EditDimAlpha is the alpha of rows other than the one being edited.
const EditDimAlpha = 0.3

// Options configures a Controller.
type Options struct {
	IconWidth float64
	RowHeight float64
	// Placement is config.PlacementTop or config.PlacementBoundary.
	Placement string
	Palette   gradient.Palette
	// HasParent enables the pull down to navigate up.
	HasParent bool
	// OnTitle is called when the collection title changes.
	OnTitle func(title string)
	// OnWrite is called after every successful write made by the controller.
	OnWrite func(ctx context.Context)
}

func (o *Options) applyDefaults() {
	if o.IconWidth <= 0 {
		o.IconWidth = 60
	}
	if o.RowHeight <= 0 {
		o.RowHeight = 1
	}
	if o.Placement == "" {
		o.Placement = config.PlacementTop
	}
	if len(o.Palette) < 2 {
		o.Palette = gradient.TaskColors
	}
}

// RowView is one row ready to draw.
type RowView struct {
	task.Row
	Color        colorful.Color
	Presentation gesture.SwipePresentation
	Swiping      bool
	Lifted       bool
	Editing      bool
	// Alpha is 1 normally, or EditDimAlpha while another row is edited.
	Alpha float64
}

// View is a snapshot of everything a front-end renders for one screen.
type View struct {
	Kind        task.Kind
	Title       string
	Rows        []RowView
	Placeholder gesture.Placeholder
	Scroll      float64
	Editing     bool
	Invalidated bool
}

// Controller drives one list screen. All methods must be called from the
// single goroutine that owns the UI.
type Controller struct {
	coll  task.Collection
	opts  Options
	log   zerolog.Logger
	token *task.Token

	rows    []task.Row
	title   string
	pending bool
	invalid bool

	swipe   *gesture.Swipe
	swipeID string
	reorder gesture.Reorder
	pull    gesture.Pull
	ph      gesture.Placeholder

	editID  string
	editNew bool
	scroll  float64
}

// New subscribes a controller to coll. Close releases the subscription.
func New(coll task.Collection, opts Options) *Controller {
	opts.applyDefaults()
	c := &Controller{
		coll:  coll,
		opts:  opts,
		log:   logging.Component("controller").With().Str("kind", string(coll.Kind())).Logger(),
		swipe: gesture.NewSwipe(opts.IconWidth),
		pull:  gesture.Pull{RowHeight: opts.RowHeight, HasParent: opts.HasParent},
	}
	c.token = coll.Subscribe(c.handleChange)
	return c
}

// Close stops receiving change notifications.
func (c *Controller) Close() {
	c.token.Stop()
}

// Collection returns the collection the controller presents.
func (c *Controller) Collection() task.Collection { return c.coll }

func (c *Controller) handleChange(ch task.Change) {
	switch ch.Kind {
	case task.ChangeInitial:
		c.rows = c.coll.Rows()
		c.setTitle(ch.Title)
	case task.ChangeUpdate:
		c.setTitle(ch.Title)
		if c.Busy() {
			c.pending = true
			c.log.Debug().Msg("deferring external change")
			return
		}
		c.rows = c.coll.Rows()
	case task.ChangeError:
		c.invalid = true
		c.log.Warn().Err(ch.Err).Msg("collection invalidated")
	}
}

func (c *Controller) setTitle(title string) {
	if title == c.title {
		return
	}
	c.title = title
	if c.opts.OnTitle != nil {
		c.opts.OnTitle(title)
	}
}

// Busy reports whether an edit or gesture is in flight. External changes
// are not applied to the presented rows while busy.
func (c *Controller) Busy() bool {
	return c.editID != "" || c.swipe.Active() || c.reorder.Active()
}

// Pending reports whether an external change is waiting to be applied.
func (c *Controller) Pending() bool { return c.pending }

// Invalidated reports whether the collection can no longer be observed.
func (c *Controller) Invalidated() bool { return c.invalid }

// Title returns the current collection title.
func (c *Controller) Title() string { return c.title }

// Rows returns the presented rows in underlying order.
func (c *Controller) Rows() []task.Row { return append([]task.Row(nil), c.rows...) }

// settle applies a deferred change once nothing is in flight.
func (c *Controller) settle() {
	if c.Busy() {
		return
	}
	if c.pending {
		c.log.Debug().Msg("applying deferred change")
	}
	c.pending = false
	c.rows = c.coll.Rows()
	c.clampScroll()
}

func (c *Controller) write(ctx context.Context, op string, fn func(tx task.Tx) error) error {
	err := c.coll.Write(ctx, fn, task.WithoutNotifying(c.token))
	c.settle()
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("write failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	if c.opts.OnWrite != nil {
		c.opts.OnWrite(ctx)
	}
	return nil
}

// completedCount counts completed rows inside a transaction.
func completedCount(tx task.Tx) int {
	n := 0
	for i := range tx.Len() {
		if r, err := tx.At(i); err == nil && r.Completed {
			n++
		}
	}
	return n
}

// CompleteItem toggles the completion of the row with the given ID and moves
// it so completed rows stay at the tail: a newly completed row goes to the
// end, an uncompleted one to the configured placement. Flip and move commit
// together. An ID that no longer exists is a no-op, as is completing a row
// that is not completable.
func (c *Controller) CompleteItem(ctx context.Context, id string) error {
	return c.write(ctx, "complete item", func(tx task.Tx) error {
		from := tx.IndexOf(id)
		if from < 0 {
			return nil
		}
		row, err := tx.At(from)
		if err != nil {
			return err
		}
		if !row.Completed && !row.Completable {
			return nil
		}

		completed := !row.Completed
		if err := tx.SetCompleted(from, completed); err != nil {
			return err
		}

		var to int
		switch {
		case completed:
			to = tx.Len() - 1
		case c.opts.Placement == config.PlacementBoundary:
			to = tx.Len() - completedCount(tx) - 1
		default:
			to = 0
		}
		to = max(0, min(to, tx.Len()-1))
		if to == from {
			return nil
		}
		return tx.Move(from, to)
	})
}

// DeleteItem removes the row with the given ID. A missing ID is a no-op.
func (c *Controller) DeleteItem(ctx context.Context, id string) error {
	if id == c.editID {
		c.editID, c.editNew = "", false
	}
	return c.write(ctx, "delete item", func(tx task.Tx) error {
		i := tx.IndexOf(id)
		if i < 0 {
			return nil
		}
		return tx.Remove(i)
	})
}

// DeleteCompleted removes every completed row and returns how many were
// removed.
func (c *Controller) DeleteCompleted(ctx context.Context) (int, error) {
	var n int
	err := c.write(ctx, "delete completed", func(tx task.Tx) error {
		var err error
		n, err = tx.RemoveWhere(func(r task.Row) bool { return r.Completed })
		return err
	})
	return n, err
}

// MoveItem moves the row with the given ID to index to. Completed rows
// cannot be moved, and a completed row is not a valid destination.
func (c *Controller) MoveItem(ctx context.Context, id string, to int) error {
	return c.write(ctx, "move item", func(tx task.Tx) error {
		from := tx.IndexOf(id)
		if from < 0 || to < 0 || to >= tx.Len() || from == to {
			return nil
		}
		src, err := tx.At(from)
		if err != nil {
			return err
		}
		dst, err := tx.At(to)
		if err != nil {
			return err
		}
		if src.Completed || dst.Completed {
			return nil
		}
		return tx.Move(from, to)
	})
}

// Editing returns the ID of the row being edited, if any.
func (c *Controller) Editing() (string, bool) {
	return c.editID, c.editID != ""
}

// BeginEdit puts the row with the given ID into text-edit mode. Completed
// rows and rows under a gesture cannot be edited.
func (c *Controller) BeginEdit(id string) bool {
	if c.swipe.Active() || c.reorder.Active() {
		return false
	}
	i := c.indexOf(id)
	if i < 0 || c.rows[i].Completed {
		return false
	}
	c.editID = id
	c.editNew = false
	return true
}

// CommitEdit ends edit mode, saving the trimmed text. Empty text deletes the
// item. If the row vanished while editing, the edit is dropped.
func (c *Controller) CommitEdit(ctx context.Context, text string) error {
	id := c.editID
	if id == "" {
		return nil
	}
	c.editID, c.editNew = "", false

	text = strings.TrimSpace(text)
	return c.write(ctx, "commit edit", func(tx task.Tx) error {
		i := tx.IndexOf(id)
		if i < 0 {
			return nil
		}
		if text == "" {
			return tx.Remove(i)
		}
		row, err := tx.At(i)
		if err != nil {
			return err
		}
		if row.Text == text {
			return nil
		}
		return tx.SetText(i, text)
	})
}

// CancelEdit leaves edit mode without saving. A row created for this edit is
// removed again.
func (c *Controller) CancelEdit(ctx context.Context) error {
	id, created := c.editID, c.editNew
	if id == "" {
		return nil
	}
	c.editID, c.editNew = "", false
	if !created {
		c.settle()
		return nil
	}
	return c.write(ctx, "cancel edit", func(tx task.Tx) error {
		if i := tx.IndexOf(id); i >= 0 {
			return tx.Remove(i)
		}
		return nil
	})
}

// CreateAtHead inserts an empty row at index 0 and starts editing it.
func (c *Controller) CreateAtHead(ctx context.Context) (string, error) {
	return c.create(ctx, func(task.Tx) int { return 0 })
}

// InsertAtBoundary inserts an empty row just above the first completed row
// and starts editing it.
func (c *Controller) InsertAtBoundary(ctx context.Context) (string, error) {
	return c.create(ctx, func(tx task.Tx) int { return tx.Len() - completedCount(tx) })
}

func (c *Controller) create(ctx context.Context, at func(task.Tx) int) (string, error) {
	if c.Busy() {
		return "", nil
	}
	var id string
	err := c.write(ctx, "create item", func(tx task.Tx) error {
		row, err := tx.Insert(at(tx), "")
		if err != nil {
			return err
		}
		id = row.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	c.editID, c.editNew = id, true
	return id, nil
}

func (c *Controller) indexOf(id string) int {
	for i, r := range c.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// BeginSwipe starts a horizontal swipe over the row with the given ID.
func (c *Controller) BeginSwipe(id string) bool {
	if c.editID != "" || c.reorder.Active() {
		return false
	}
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	if !c.swipe.Begin(c.rows[i].Completable, c.rows[i].Completed) {
		return false
	}
	c.swipeID = id
	return true
}

// UpdateSwipe feeds the raw translation, in pointer units, since BeginSwipe.
func (c *Controller) UpdateSwipe(translation float64) gesture.SwipePresentation {
	return c.swipe.Update(translation)
}

// Swiping returns the ID of the row under a swipe.
func (c *Controller) Swiping() (string, bool) {
	return c.swipeID, c.swipe.Active()
}

// EndSwipe releases the swipe and performs its action. The machine returns
// to idle on every path, including a failed write.
func (c *Controller) EndSwipe(ctx context.Context) (gesture.ReleaseAction, error) {
	action := c.swipe.End()
	id := c.swipeID
	c.swipe.Finish()
	c.swipeID = ""

	ctx = logging.WithGesture(ctx, "swipe")
	var err error
	switch action {
	case gesture.ActionComplete:
		err = c.CompleteItem(ctx, id)
	case gesture.ActionDelete:
		err = c.DeleteItem(ctx, id)
	default:
		c.settle()
	}
	return action, err
}

// CancelSwipe abandons a swipe without an action.
func (c *Controller) CancelSwipe() {
	c.swipe.Cancel()
	c.swipe.Finish()
	c.swipeID = ""
	c.settle()
}

type layout struct {
	rows      []task.Row
	rowHeight float64
	scroll    float64
}

func (l layout) Len() int { return len(l.rows) }

func (l layout) IsCompleted(i int) bool {
	return i >= 0 && i < len(l.rows) && l.rows[i].Completed
}

func (l layout) RowAt(y float64) (int, bool) {
	i := int(math.Floor((y + l.scroll) / l.rowHeight))
	return i, i >= 0 && i < len(l.rows)
}

func (c *Controller) layout() layout {
	return layout{rows: c.rows, rowHeight: c.opts.RowHeight, scroll: c.scroll}
}

// RowAt returns the presented row under viewport position y.
func (c *Controller) RowAt(y float64) (task.Row, bool) {
	i, ok := c.layout().RowAt(y)
	if !ok {
		return task.Row{}, false
	}
	return c.displayRows()[i], true
}

// BeginReorder lifts the row under y. It refuses while a swipe or edit is
// active.
func (c *Controller) BeginReorder(y float64) bool {
	if c.editID != "" || !gesture.ShouldBeginReorder(c.swipe) {
		return false
	}
	return c.reorder.Begin(c.layout(), y)
}

// DragReorder moves the lifted row to y and reports whether rows moved.
func (c *Controller) DragReorder(y float64) bool {
	return c.reorder.Drag(c.layout(), y)
}

// Reordering reports whether a reorder drag is active.
func (c *Controller) Reordering() bool { return c.reorder.Active() }

// ReorderGeneration identifies the current drag for autoscroll ticks.
func (c *Controller) ReorderGeneration() uint64 { return c.reorder.Generation() }

// Autoscroll runs one autoscroll tick scheduled under gen for a viewport of
// height units with the given edge margin. It nudges the scroll offset when
// the pointer is near an edge and re-runs the drag step. It returns false
// when the tick is stale and no further ticks should be scheduled.
func (c *Controller) Autoscroll(gen uint64, height, margin float64) bool {
	if !c.reorder.Tick(gen) {
		return false
	}
	s := c.reorder.Session()
	if dir := gesture.AutoscrollDirection(s.PointerY, height, margin); dir != 0 {
		c.ScrollBy(float64(dir)*c.opts.RowHeight, height)
	}
	c.reorder.Drag(c.layout(), s.PointerY)
	return true
}

// EndReorder finishes the drag for any reason and commits the move if it is
// valid against the current collection.
func (c *Controller) EndReorder(ctx context.Context, reason gesture.EndReason) (gesture.Move, bool, error) {
	mv, ok := c.reorder.End(c.layout(), reason)
	if !ok {
		c.settle()
		return gesture.Move{}, false, nil
	}
	id := c.rows[mv.From].ID
	err := c.MoveItem(logging.WithGesture(ctx, "reorder"), id, mv.To)
	return mv, err == nil, err
}

// SetHasChild makes a pull up navigate down instead of sweeping completed
// rows.
func (c *Controller) SetHasChild(v bool) { c.pull.HasChild = v }

// HasChild reports whether a pull up navigates down.
func (c *Controller) HasChild() bool { return c.pull.HasChild }

// HasParent reports whether a long pull down navigates up.
func (c *Controller) HasParent() bool { return c.pull.HasParent }

// Pull records overscroll distances in pointer units.
func (c *Controller) Pull(pulledDown, pulledUp float64, dragging bool) gesture.Placeholder {
	if c.editID != "" {
		return c.ph
	}
	c.ph = c.pull.Scroll(pulledDown, pulledUp, dragging)
	return c.ph
}

// EndPull resolves an overscroll release. Create and delete-completed are
// performed here; navigation intents are returned for the navigator.
func (c *Controller) EndPull(ctx context.Context) (gesture.PullIntent, error) {
	intent := c.pull.EndDragging()
	c.ph = gesture.Placeholder{}

	ctx = logging.WithGesture(ctx, "pull")
	switch intent {
	case gesture.IntentCreate:
		_, err := c.CreateAtHead(ctx)
		return intent, err
	case gesture.IntentDeleteCompleted:
		_, err := c.DeleteCompleted(ctx)
		return intent, err
	default:
		return intent, nil
	}
}

// ScrollBy moves the scroll offset, clamped to the content. Scrolling is
// disabled while editing.
func (c *Controller) ScrollBy(delta, height float64) {
	if c.editID != "" {
		return
	}
	c.scroll += delta
	c.clampScrollTo(height)
}

func (c *Controller) clampScroll() { c.clampScrollTo(0) }

func (c *Controller) clampScrollTo(height float64) {
	maxScroll := float64(len(c.rows))*c.opts.RowHeight - height
	c.scroll = math.Max(0, math.Min(c.scroll, math.Max(0, maxScroll)))
}

// Scroll returns the current scroll offset.
func (c *Controller) Scroll() float64 { return c.scroll }

func (c *Controller) displayRows() []task.Row {
	if s := c.reorder.Session(); s != nil {
		return gesture.ApplyOrder(c.rows, s.Order)
	}
	return c.rows
}

// View builds the render snapshot.
func (c *Controller) View() View {
	rows := c.displayRows()
	v := View{
		Kind:        c.coll.Kind(),
		Title:       c.title,
		Rows:        make([]RowView, len(rows)),
		Placeholder: c.ph,
		Scroll:      c.scroll,
		Editing:     c.editID != "",
		Invalidated: c.invalid,
	}

	lifted := -1
	if s := c.reorder.Session(); s != nil {
		lifted = s.Destination
	}

	for i, r := range rows {
		rv := RowView{
			Row:          r,
			Presentation: gesture.RestPresentation(r.Completed),
			Alpha:        1,
			Lifted:       i == lifted,
			Editing:      r.ID == c.editID,
		}
		if r.Completed {
			rv.Color = gradient.CompleteDim
		} else {
			rv.Color = c.opts.Palette.ForRow(i, len(rows))
		}
		if c.swipe.Active() && r.ID == c.swipeID {
			rv.Presentation = c.swipe.Presentation()
			rv.Swiping = true
		}
		if c.editID != "" && !rv.Editing {
			rv.Alpha = EditDimAlpha
		}
		v.Rows[i] = rv
	}
	return v
}
