// Package account models the signed-in user of the sync service.
package account

import (
	"context"
	"errors"
	"time"
)

// ErrNotLoggedIn is returned when no user token is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// User is a signed-in user and the token the auth endpoint issued for it.
type User struct {
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists the signed-in user.
type Store interface {
	// Save stores the user, replacing any user already signed in.
	Save(ctx context.Context, u User) error
	// Current returns the signed-in user or ErrNotLoggedIn.
	Current(ctx context.Context) (User, error)
	// Clear signs the current user out.
	Clear(ctx context.Context) error
}
