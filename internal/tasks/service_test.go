package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tasks/internal/auth"
	"github.com/colonyops/tasks/internal/core/account"
	"github.com/colonyops/tasks/internal/core/config"
	"github.com/colonyops/tasks/internal/core/kv"
	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/data/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	database, err := db.Open(cfg.DataDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	svc := NewService(&cfg, database)
	require.NoError(t, svc.EnsureDefaultList(context.Background()))
	return svc
}

func addTasks(t *testing.T, svc *Service, listRef string, texts ...string) {
	t.Helper()
	ctx := context.Background()
	err := svc.WithTasks(ctx, listRef, func(_ task.List, c *Controller) error {
		for _, text := range texts {
			if _, err := c.InsertAtBoundary(ctx); err != nil {
				return err
			}
			if err := c.CommitEdit(ctx, text); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func rowTexts(rows []task.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text
	}
	return out
}

func TestService_EnsureDefaultList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	l, err := svc.ResolveList(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, task.DefaultListID, l.ID)
	assert.Equal(t, "My Tasks", l.Text)

	last := kv.Scoped[string](svc.KV, "nav").GetOr(ctx, lastListKey, "")
	assert.Equal(t, task.DefaultListID, last)

	// Second run leaves the existing lists alone.
	require.NoError(t, svc.EnsureDefaultList(ctx))
	lists, err := svc.Store.ListLists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func TestService_ResolveList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	err := svc.WithLists(ctx, func(c *Controller) error {
		if _, err := c.CreateAtHead(ctx); err != nil {
			return err
		}
		return c.CommitEdit(ctx, "Groceries")
	})
	require.NoError(t, err)

	t.Run("by name", func(t *testing.T) {
		l, err := svc.ResolveList(ctx, "groceries")
		require.NoError(t, err)
		assert.Equal(t, "Groceries", l.Text)
	})

	t.Run("stale last list falls back to default", func(t *testing.T) {
		require.NoError(t, kv.Scoped[string](svc.KV, "nav").Set(ctx, lastListKey, "gone"))
		l, err := svc.ResolveList(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, task.DefaultListID, l.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.ResolveList(ctx, "nope")
		assert.ErrorIs(t, err, task.ErrNotFound)
	})
}

func TestService_WithTasksKeepsCompletedAtTail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	addTasks(t, svc, "", "A", "B", "C")

	err := svc.WithTasks(ctx, "", func(_ task.List, c *Controller) error {
		return c.CompleteItem(ctx, c.Rows()[0].ID)
	})
	require.NoError(t, err)

	err = svc.WithTasks(ctx, "", func(_ task.List, c *Controller) error {
		assert.Equal(t, []string{"B", "C", "A"}, rowTexts(c.Rows()))
		assert.True(t, c.Rows()[2].Completed)
		return nil
	})
	require.NoError(t, err)
}

func TestResolveRow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	addTasks(t, svc, "", "Milk", "Bread", "milk")

	err := svc.WithTasks(ctx, "", func(_ task.List, c *Controller) error {
		rows := c.Rows()

		t.Run("position", func(t *testing.T) {
			r, err := ResolveRow(c, "2")
			require.NoError(t, err)
			assert.Equal(t, "Bread", r.Text)
		})

		t.Run("position out of range", func(t *testing.T) {
			_, err := ResolveRow(c, "4")
			assert.ErrorIs(t, err, task.ErrOutOfRange)
		})

		t.Run("exact id", func(t *testing.T) {
			r, err := ResolveRow(c, rows[1].ID)
			require.NoError(t, err)
			assert.Equal(t, rows[1].ID, r.ID)
		})

		t.Run("id prefix", func(t *testing.T) {
			r, err := ResolveRow(c, rows[1].ID[:13])
			require.NoError(t, err)
			assert.Equal(t, rows[1].ID, r.ID)
		})

		t.Run("text", func(t *testing.T) {
			r, err := ResolveRow(c, "BREAD")
			require.NoError(t, err)
			assert.Equal(t, rows[1].ID, r.ID)
		})

		t.Run("ambiguous text", func(t *testing.T) {
			_, err := ResolveRow(c, "milk")
			assert.ErrorIs(t, err, ErrAmbiguousRef)
		})

		t.Run("missing", func(t *testing.T) {
			_, err := ResolveRow(c, "eggs")
			assert.ErrorIs(t, err, task.ErrNotFound)
		})
		return nil
	})
	require.NoError(t, err)
}

func TestService_Authenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r := mux.NewRouter()
	r.HandleFunc("/auth", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + body["data"].(string)})
	}).Methods(http.MethodPost)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	svc.Auth = auth.NewClient(auth.Config{URL: srv.URL + "/auth"}, srv.Client())

	_, err := svc.Authenticate(ctx, "ada", "wrong", false)
	require.ErrorIs(t, err, auth.ErrBadCredentials)
	_, err = svc.Users.Current(ctx)
	require.ErrorIs(t, err, account.ErrNotLoggedIn)

	u, err := svc.Authenticate(ctx, "ada", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, "tok-ada", u.Token)

	current, err := svc.Users.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", current.Username)
	assert.Equal(t, "tok-ada", current.Token)

	require.NoError(t, svc.LogOut(ctx))
	_, err = svc.Users.Current(ctx)
	require.ErrorIs(t, err, account.ErrNotLoggedIn)

	// Logging out twice is fine.
	require.NoError(t, svc.LogOut(ctx))
}
