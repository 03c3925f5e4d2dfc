package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/tasks/internal/core/account"
	"github.com/colonyops/tasks/internal/data/db"
)

// UserStore implements account.Store using SQLite.
type UserStore struct {
	db *db.DB
}

var _ account.Store = (*UserStore)(nil)

// NewUserStore creates a new SQLite-backed user store.
func NewUserStore(db *db.DB) *UserStore {
	return &UserStore{db: db}
}

// Save replaces the signed-in user.
func (s *UserStore) Save(ctx context.Context, u account.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, token, created_at) VALUES (?, ?, ?)",
			u.Username, u.Token, u.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		return nil
	})
}

// Current returns the signed-in user.
func (s *UserStore) Current(ctx context.Context) (account.User, error) {
	var (
		u       account.User
		created int64
	)
	err := s.db.Conn().QueryRowContext(ctx,
		"SELECT username, token, created_at FROM users ORDER BY created_at DESC LIMIT 1",
	).Scan(&u.Username, &u.Token, &created)
	if IsNotFoundError(err) {
		return account.User{}, account.ErrNotLoggedIn
	}
	if err != nil {
		return account.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = time.Unix(0, created)
	return u, nil
}

// Clear removes the signed-in user.
func (s *UserStore) Clear(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}
	return nil
}
