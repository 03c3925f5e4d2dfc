package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/tasks/internal/core/logging"
	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/data/db"
)

// Collection implements task.Collection over SQLite, either for the set of
// lists or for the tasks of one list. It keeps the last loaded snapshot in
// memory; writes re-read the rows inside their transaction so they act on
// the committed state, not on a possibly stale snapshot.
type Collection struct {
	db     *db.DB
	kind   task.Kind
	listID string
	hidden func(name string) bool
	log    zerolog.Logger

	mu      sync.Mutex
	rows    []task.Row
	title   string
	invalid bool

	notifier task.Notifier
}

var _ task.Collection = (*Collection)(nil)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type loadedRow struct {
	task.Row
	position int64
}

const (
	selectLists = `
		SELECT l.id, l.text, l.completed, l.position,
		       COALESCE(SUM(CASE WHEN t.completed = 0 THEN 1 ELSE 0 END), 0) AS remaining
		FROM lists l
		LEFT JOIN tasks t ON t.list_id = l.id
		GROUP BY l.id
		ORDER BY l.position, l.created_at, l.id`

	selectTasks = `
		SELECT id, text, completed, position, 0
		FROM tasks
		WHERE list_id = ?
		ORDER BY position, created_at, id`
)

func newCollection(d *db.DB, kind task.Kind, listID string, hidden func(string) bool) *Collection {
	return &Collection{
		db:     d,
		kind:   kind,
		listID: listID,
		hidden: hidden,
		log:    logging.Collection(string(kind), listID),
	}
}

// ListID returns the owning list of a task collection.
func (c *Collection) ListID() string { return c.listID }

func (c *Collection) Kind() task.Kind { return c.kind }

func (c *Collection) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

func (c *Collection) Rows() []task.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]task.Row(nil), c.rows...)
}

func (c *Collection) At(i int) (task.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.rows) {
		return task.Row{}, task.ErrOutOfRange
	}
	return c.rows[i], nil
}

func (c *Collection) IndexOf(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) Filter(pred func(task.Row) bool) []task.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []task.Row
	for _, r := range c.rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Subscribe registers fn and immediately delivers ChangeInitial, or
// ChangeError if the collection is already invalidated.
func (c *Collection) Subscribe(fn func(task.Change)) *task.Token {
	tok := c.notifier.Add(fn)

	c.mu.Lock()
	invalid, title := c.invalid, c.title
	c.mu.Unlock()

	if invalid {
		fn(task.Change{Kind: task.ChangeError, Err: task.ErrInvalidated})
	} else {
		fn(task.Change{Kind: task.ChangeInitial, Title: title})
	}
	return tok
}

// Refresh reloads the snapshot and notifies every subscriber of the
// difference.
func (c *Collection) Refresh(ctx context.Context) error {
	return c.reload(ctx, nil)
}

// Write runs fn in one SQLite transaction. The transaction is committed only
// if fn returns nil; afterwards the snapshot is reloaded and subscribers other
// than the one named by WithoutNotifying are told what changed.
func (c *Collection) Write(ctx context.Context, fn func(tx task.Tx) error, opts ...task.WriteOption) error {
	o := task.ApplyWriteOptions(opts)

	c.mu.Lock()
	invalid := c.invalid
	c.mu.Unlock()
	if invalid {
		return task.ErrInvalidated
	}

	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		rows, _, err := c.load(ctx, tx)
		if err != nil {
			return err
		}
		w := newWriteTx(ctx, c, tx, rows)
		if err := fn(w); err != nil {
			return err
		}
		return w.flush()
	})
	if err != nil {
		if errors.Is(err, task.ErrInvalidated) {
			c.invalidate()
		}
		if IsBusyError(err) {
			err = fmt.Errorf("%w: %w", task.ErrBusy, err)
		}
		c.log.Warn().Ctx(ctx).Err(err).Msg("write rolled back")
		return err
	}

	return c.reload(ctx, o.Skip)
}

func (c *Collection) reload(ctx context.Context, skip *task.Token) error {
	loaded, title, err := c.load(ctx, c.db.Conn())
	if err != nil {
		if errors.Is(err, task.ErrInvalidated) {
			c.invalidate()
		}
		return err
	}

	rows := make([]task.Row, len(loaded))
	for i, r := range loaded {
		rows[i] = r.Row
	}

	c.mu.Lock()
	before := c.rows
	titleChanged := title != c.title
	c.rows = rows
	c.title = title
	c.mu.Unlock()

	ch := task.Diff(before, rows)
	ch.Title = title
	if ch.Empty() && !titleChanged {
		return nil
	}

	c.log.Debug().
		Ints("deletions", ch.Deletions).
		Ints("insertions", ch.Insertions).
		Ints("modifications", ch.Modifications).
		Msg("collection changed")
	c.notifier.Notify(ch, skip)
	return nil
}

func (c *Collection) invalidate() {
	c.mu.Lock()
	already := c.invalid
	c.invalid = true
	c.mu.Unlock()
	if already {
		return
	}
	c.log.Info().Msg("collection invalidated")
	c.notifier.Notify(task.Change{Kind: task.ChangeError, Err: task.ErrInvalidated}, nil)
}

// load reads rows in display order. For task collections it also returns
// the list title, or task.ErrInvalidated if the list no longer exists.
func (c *Collection) load(ctx context.Context, q querier) ([]loadedRow, string, error) {
	var (
		query string
		args  []any
		title string
	)

	switch c.kind {
	case task.KindLists:
		query = selectLists
	case task.KindTasks:
		err := q.QueryRowContext(ctx, "SELECT text FROM lists WHERE id = ?", c.listID).Scan(&title)
		if IsNotFoundError(err) {
			return nil, "", task.ErrInvalidated
		}
		if err != nil {
			return nil, "", fmt.Errorf("load list title: %w", err)
		}
		query = selectTasks
		args = []any{c.listID}
	default:
		return nil, "", fmt.Errorf("unknown collection kind %q", c.kind)
	}

	rs, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", c.kind, err)
	}
	defer func() { _ = rs.Close() }()

	var out []loadedRow
	for rs.Next() {
		var (
			r         loadedRow
			remaining int
		)
		if err := rs.Scan(&r.ID, &r.Text, &r.Completed, &r.position, &remaining); err != nil {
			return nil, "", fmt.Errorf("scan %s: %w", c.kind, err)
		}
		if c.kind == task.KindLists {
			if c.hidden != nil && c.hidden(r.Text) {
				continue
			}
			r.Completable = remaining > 0
			r.Badge = remaining
		} else {
			r.Completable = true
			r.Badge = -1
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate %s: %w", c.kind, err)
	}

	return out, title, nil
}

// writeTx buffers mutations against the rows read inside the transaction
// and flushes them as the minimal set of statements on success.
type writeTx struct {
	ctx       context.Context
	c         *Collection
	tx        *sql.Tx
	rows      []task.Row
	positions map[string]int64
	created   map[string]bool
	changed   map[string]bool
	removed   []string
}

var _ task.Tx = (*writeTx)(nil)

func newWriteTx(ctx context.Context, c *Collection, tx *sql.Tx, loaded []loadedRow) *writeTx {
	w := &writeTx{
		ctx:       ctx,
		c:         c,
		tx:        tx,
		rows:      make([]task.Row, len(loaded)),
		positions: make(map[string]int64, len(loaded)),
		created:   make(map[string]bool),
		changed:   make(map[string]bool),
	}
	for i, r := range loaded {
		w.rows[i] = r.Row
		w.positions[r.ID] = r.position
	}
	return w
}

func (w *writeTx) Len() int { return len(w.rows) }

func (w *writeTx) At(i int) (task.Row, error) {
	if i < 0 || i >= len(w.rows) {
		return task.Row{}, task.ErrOutOfRange
	}
	return w.rows[i], nil
}

func (w *writeTx) IndexOf(id string) int {
	for i, r := range w.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (w *writeTx) Insert(at int, text string) (task.Row, error) {
	if at < 0 || at > len(w.rows) {
		return task.Row{}, task.ErrOutOfRange
	}
	row := task.Row{ID: uuid.NewString(), Text: text, Badge: -1, Completable: true}
	if w.c.kind == task.KindLists {
		row.Badge = 0
		row.Completable = false
	}
	w.rows = append(w.rows, task.Row{})
	copy(w.rows[at+1:], w.rows[at:])
	w.rows[at] = row
	w.created[row.ID] = true
	return row, nil
}

func (w *writeTx) Remove(at int) error {
	if at < 0 || at >= len(w.rows) {
		return task.ErrOutOfRange
	}
	w.drop(w.rows[at].ID)
	w.rows = append(w.rows[:at], w.rows[at+1:]...)
	return nil
}

func (w *writeTx) drop(id string) {
	delete(w.changed, id)
	if w.created[id] {
		delete(w.created, id)
		return
	}
	w.removed = append(w.removed, id)
}

func (w *writeTx) Move(from, to int) error {
	if from < 0 || from >= len(w.rows) || to < 0 || to >= len(w.rows) {
		return task.ErrOutOfRange
	}
	row := w.rows[from]
	w.rows = append(w.rows[:from], w.rows[from+1:]...)
	w.rows = append(w.rows, task.Row{})
	copy(w.rows[to+1:], w.rows[to:])
	w.rows[to] = row
	return nil
}

func (w *writeTx) SetText(at int, text string) error {
	if at < 0 || at >= len(w.rows) {
		return task.ErrOutOfRange
	}
	w.rows[at].Text = text
	w.changed[w.rows[at].ID] = true
	return nil
}

func (w *writeTx) SetCompleted(at int, completed bool) error {
	if at < 0 || at >= len(w.rows) {
		return task.ErrOutOfRange
	}
	w.rows[at].Completed = completed
	w.changed[w.rows[at].ID] = true
	return nil
}

func (w *writeTx) RemoveWhere(pred func(task.Row) bool) (int, error) {
	kept := make([]task.Row, 0, len(w.rows))
	for _, r := range w.rows {
		if pred(r) {
			w.drop(r.ID)
			continue
		}
		kept = append(kept, r)
	}
	n := len(w.rows) - len(kept)
	w.rows = kept
	return n, nil
}

func (w *writeTx) table() string {
	if w.c.kind == task.KindLists {
		return "lists"
	}
	return "tasks"
}

func (w *writeTx) flush() error {
	table := w.table()

	for _, id := range w.removed {
		if _, err := w.tx.ExecContext(w.ctx, "DELETE FROM "+table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete %s %s: %w", table, id, err)
		}
	}

	now := time.Now().UnixNano()
	for i, r := range w.rows {
		pos := int64(i)
		switch {
		case w.created[r.ID]:
			var err error
			if w.c.kind == task.KindLists {
				_, err = w.tx.ExecContext(w.ctx,
					"INSERT INTO lists (id, text, completed, position, created_at) VALUES (?, ?, ?, ?, ?)",
					r.ID, r.Text, r.Completed, pos, now)
			} else {
				_, err = w.tx.ExecContext(w.ctx,
					"INSERT INTO tasks (id, list_id, text, completed, position, created_at) VALUES (?, ?, ?, ?, ?, ?)",
					r.ID, w.c.listID, r.Text, r.Completed, pos, now)
			}
			if err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
		case w.changed[r.ID] || w.positions[r.ID] != pos:
			_, err := w.tx.ExecContext(w.ctx,
				"UPDATE "+table+" SET text = ?, completed = ?, position = ? WHERE id = ?",
				r.Text, r.Completed, pos, r.ID)
			if err != nil {
				return fmt.Errorf("update %s %s: %w", table, r.ID, err)
			}
		}
	}

	return nil
}
