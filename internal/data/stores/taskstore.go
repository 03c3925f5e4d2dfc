package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/data/db"
)

// ErrAmbiguousRef is returned by FindList when a reference matches more than
// one list.
var ErrAmbiguousRef = errors.New("reference matches more than one list")

// TaskStore opens collections and answers read-only queries over the lists
// and tasks tables.
type TaskStore struct {
	db     *db.DB
	hidden func(name string) bool
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithHidden filters lists whose name matches fn out of list collections
// and ListLists.
func WithHidden(fn func(name string) bool) Option {
	return func(s *TaskStore) { s.hidden = fn }
}

// NewTaskStore creates a new SQLite-backed task store.
func NewTaskStore(d *db.DB, opts ...Option) *TaskStore {
	s := &TaskStore{db: d}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lists opens the collection of all lists.
func (s *TaskStore) Lists(ctx context.Context) (*Collection, error) {
	c := newCollection(s.db, task.KindLists, "", s.hidden)
	if err := c.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("open lists: %w", err)
	}
	return c, nil
}

// Tasks opens the collection of tasks in listID. Returns task.ErrNotFound if
// the list does not exist.
func (s *TaskStore) Tasks(ctx context.Context, listID string) (*Collection, error) {
	c := newCollection(s.db, task.KindTasks, listID, nil)
	if err := c.Refresh(ctx); err != nil {
		if errors.Is(err, task.ErrInvalidated) {
			return nil, fmt.Errorf("open list %s: %w", listID, task.ErrNotFound)
		}
		return nil, fmt.Errorf("open list %s: %w", listID, err)
	}
	return c, nil
}

// OpenLists is Lists typed as a task.Collection.
func (s *TaskStore) OpenLists(ctx context.Context) (task.Collection, error) {
	c, err := s.Lists(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// OpenTasks is Tasks typed as a task.Collection.
func (s *TaskStore) OpenTasks(ctx context.Context, listID string) (task.Collection, error) {
	c, err := s.Tasks(ctx, listID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EnsureDefaultList seeds a list named name under task.DefaultListID when no
// list exists yet. It reports whether a list was created.
func (s *TaskStore) EnsureDefaultList(ctx context.Context, name string) (bool, error) {
	created := false
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM lists").Scan(&count); err != nil {
			return fmt.Errorf("count lists: %w", err)
		}
		if count > 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO lists (id, text, completed, position, created_at) VALUES (?, ?, 0, 0, ?)",
			task.DefaultListID, name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("insert default list: %w", err)
		}
		created = true
		return nil
	})
	return created, err
}

const selectListSummaries = `
	SELECT l.id, l.text, l.completed, l.created_at,
	       COALESCE(SUM(CASE WHEN t.completed = 0 THEN 1 ELSE 0 END), 0),
	       COUNT(t.id)
	FROM lists l
	LEFT JOIN tasks t ON t.list_id = l.id`

// ListLists returns every visible list in display order.
func (s *TaskStore) ListLists(ctx context.Context) ([]task.List, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		selectListSummaries+" GROUP BY l.id ORDER BY l.position, l.created_at, l.id")
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var lists []task.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		if s.hidden != nil && s.hidden(l.Text) {
			continue
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

// GetList returns a list by ID. Returns task.ErrNotFound if not found.
func (s *TaskStore) GetList(ctx context.Context, id string) (task.List, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		selectListSummaries+" WHERE l.id = ? GROUP BY l.id", id)
	l, err := scanList(row)
	if IsNotFoundError(err) {
		return task.List{}, task.ErrNotFound
	}
	return l, err
}

// FindList resolves ref as an exact ID, a case-insensitive name, or a unique
// ID prefix, in that order.
func (s *TaskStore) FindList(ctx context.Context, ref string) (task.List, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.List{}, task.ErrNotFound
	}

	lists, err := s.ListLists(ctx)
	if err != nil {
		return task.List{}, err
	}

	for _, l := range lists {
		if l.ID == ref {
			return l, nil
		}
	}

	var byName, byPrefix []task.List
	for _, l := range lists {
		if strings.EqualFold(l.Text, ref) {
			byName = append(byName, l)
		}
		if strings.HasPrefix(strings.ToLower(l.ID), strings.ToLower(ref)) {
			byPrefix = append(byPrefix, l)
		}
	}

	for _, matches := range [][]task.List{byName, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return task.List{}, fmt.Errorf("%q: %w", ref, ErrAmbiguousRef)
		}
	}

	return task.List{}, fmt.Errorf("%q: %w", ref, task.ErrNotFound)
}

// ListTasks returns the tasks of listID in display order.
func (s *TaskStore) ListTasks(ctx context.Context, listID string) ([]task.Task, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, list_id, text, completed, created_at
		FROM tasks
		WHERE list_id = ?
		ORDER BY position, created_at, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		var (
			t       task.Task
			created int64
		)
		if err := rows.Scan(&t.ID, &t.ListID, &t.Text, &t.Completed, &created); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.CreatedAt = time.Unix(0, created)
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanList(sc scanner) (task.List, error) {
	var (
		l       task.List
		created int64
	)
	if err := sc.Scan(&l.ID, &l.Text, &l.Completed, &created, &l.Remaining, &l.Total); err != nil {
		if IsNotFoundError(err) {
			return task.List{}, err
		}
		return task.List{}, fmt.Errorf("failed to scan list: %w", err)
	}
	l.CreatedAt = time.Unix(0, created)
	return l, nil
}
