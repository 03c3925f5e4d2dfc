package doctor

import (
	"context"
	"errors"

	"github.com/colonyops/tasks/internal/core/account"
)

// AccountCheck reports whether a user is signed in.
type AccountCheck struct {
	users account.Store
}

// NewAccountCheck creates a new account check.
func NewAccountCheck(users account.Store) *AccountCheck {
	return &AccountCheck{users: users}
}

func (c *AccountCheck) Name() string {
	return "Account"
}

func (c *AccountCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	u, err := c.users.Current(ctx)
	switch {
	case errors.Is(err, account.ErrNotLoggedIn):
		result.add("user", StatusWarn, "not logged in; run 'tasks login'")
	case err != nil:
		result.add("user", StatusFail, err.Error())
	default:
		result.add("user", StatusPass, u.Username)
	}

	return result
}
