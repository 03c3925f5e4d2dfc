// Package tasktest provides an in-memory task.Collection for tests.
package tasktest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/colonyops/tasks/internal/core/task"
)

var _ task.Collection = (*Memory)(nil)

// Memory is a task.Collection held entirely in memory. Writes are applied to
// a copy and swapped in on success, so a failing write leaves it unchanged.
type Memory struct {
	mu       sync.Mutex
	kind     task.Kind
	title    string
	rows     []task.Row
	nextID   int
	notifier task.Notifier

	// FailWrites makes every Write return this error without applying it.
	FailWrites error
	// Writes counts committed writes.
	Writes int
}

// New returns a task collection containing one uncompleted row per text.
func New(texts ...string) *Memory {
	m := &Memory{kind: task.KindTasks}
	for _, text := range texts {
		m.rows = append(m.rows, m.newRow(text))
	}
	return m
}

// NewRows returns a collection of the given kind seeded with rows as is.
func NewRows(kind task.Kind, rows ...task.Row) *Memory {
	m := &Memory{kind: kind}
	m.rows = append(m.rows, rows...)
	m.nextID = len(rows)
	return m
}

// SetTitle changes the title and notifies subscribers with an empty update.
func (m *Memory) SetTitle(title string) {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
	m.notifier.Notify(task.Change{Kind: task.ChangeUpdate, Title: title}, nil)
}

// Invalidate simulates the collection being deleted underneath its observers.
func (m *Memory) Invalidate() {
	m.notifier.Notify(task.Change{Kind: task.ChangeError, Err: task.ErrInvalidated}, nil)
}

// Texts returns the row texts in order.
func (m *Memory) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = r.Text
	}
	return out
}

func (m *Memory) newRow(text string) task.Row {
	m.nextID++
	return task.Row{
		ID:          "row-" + strconv.Itoa(m.nextID),
		Text:        text,
		Completable: m.kind == task.KindTasks,
		Badge:       -1,
	}
}

func (m *Memory) Kind() task.Kind { return m.kind }

func (m *Memory) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Memory) Rows() []task.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.Row(nil), m.rows...)
}

func (m *Memory) At(i int) (task.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.rows) {
		return task.Row{}, task.ErrOutOfRange
	}
	return m.rows[i], nil
}

func (m *Memory) IndexOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return indexOf(m.rows, id)
}

func (m *Memory) Filter(pred func(task.Row) bool) []task.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []task.Row
	for _, r := range m.rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) Subscribe(fn func(task.Change)) *task.Token {
	tok := m.notifier.Add(fn)
	fn(task.Change{Kind: task.ChangeInitial, Title: m.Title()})
	return tok
}

func (m *Memory) Refresh(context.Context) error { return nil }

func (m *Memory) Write(ctx context.Context, fn func(tx task.Tx) error, opts ...task.WriteOption) (err error) {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	o := task.ApplyWriteOptions(opts)

	m.mu.Lock()
	before := append([]task.Row(nil), m.rows...)
	tx := &memTx{m: m, rows: append([]task.Row(nil), m.rows...)}
	m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write panicked: %v", r)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.rows = tx.rows
	m.Writes++
	m.mu.Unlock()

	ch := task.Diff(before, tx.rows)
	if !ch.Empty() {
		m.notifier.Notify(ch, o.Skip)
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (m *Memory) Subscribers() int { return m.notifier.Len() }

type memTx struct {
	m    *Memory
	rows []task.Row
}

func (tx *memTx) Len() int { return len(tx.rows) }

func (tx *memTx) At(i int) (task.Row, error) {
	if i < 0 || i >= len(tx.rows) {
		return task.Row{}, task.ErrOutOfRange
	}
	return tx.rows[i], nil
}

func (tx *memTx) IndexOf(id string) int { return indexOf(tx.rows, id) }

func (tx *memTx) Insert(at int, text string) (task.Row, error) {
	if at < 0 || at > len(tx.rows) {
		return task.Row{}, task.ErrOutOfRange
	}
	tx.m.mu.Lock()
	row := tx.m.newRow(text)
	tx.m.mu.Unlock()
	tx.rows = append(tx.rows, task.Row{})
	copy(tx.rows[at+1:], tx.rows[at:])
	tx.rows[at] = row
	return row, nil
}

func (tx *memTx) Remove(at int) error {
	if at < 0 || at >= len(tx.rows) {
		return task.ErrOutOfRange
	}
	tx.rows = append(tx.rows[:at], tx.rows[at+1:]...)
	return nil
}

func (tx *memTx) Move(from, to int) error {
	if from < 0 || from >= len(tx.rows) || to < 0 || to >= len(tx.rows) {
		return task.ErrOutOfRange
	}
	row := tx.rows[from]
	tx.rows = append(tx.rows[:from], tx.rows[from+1:]...)
	tx.rows = append(tx.rows, task.Row{})
	copy(tx.rows[to+1:], tx.rows[to:])
	tx.rows[to] = row
	return nil
}

func (tx *memTx) SetText(at int, text string) error {
	if at < 0 || at >= len(tx.rows) {
		return task.ErrOutOfRange
	}
	tx.rows[at].Text = text
	return nil
}

func (tx *memTx) SetCompleted(at int, completed bool) error {
	if at < 0 || at >= len(tx.rows) {
		return task.ErrOutOfRange
	}
	tx.rows[at].Completed = completed
	return nil
}

func (tx *memTx) RemoveWhere(pred func(task.Row) bool) (int, error) {
	kept := tx.rows[:0:0]
	for _, r := range tx.rows {
		if !pred(r) {
			kept = append(kept, r)
		}
	}
	n := len(tx.rows) - len(kept)
	tx.rows = kept
	return n, nil
}

func indexOf(rows []task.Row, id string) int {
	for i, r := range rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// ErrBoom is a convenience error for failure-injection tests.
var ErrBoom = errors.New("boom")
