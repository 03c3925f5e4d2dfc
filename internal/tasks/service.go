package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/colonyops/tasks/internal/auth"
	"github.com/colonyops/tasks/internal/core/account"
	"github.com/colonyops/tasks/internal/core/config"
	"github.com/colonyops/tasks/internal/core/kv"
	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/data/stores"
)

// ErrAmbiguousRef is returned when a reference matches more than one row.
var ErrAmbiguousRef = stores.ErrAmbiguousRef

// Service is the entry point for the commands and the TUI. They consume the
// Service instead of cherry-picking stores.
type Service struct {
	Config *config.Config
	DB     *db.DB
	Store  *stores.TaskStore
	KV     kv.KV
	Users  account.Store
	Auth   *auth.Client
}

// NewService wires the stores on top of an open database.
func NewService(cfg *config.Config, database *db.DB) *Service {
	return &Service{
		Config: cfg,
		DB:     database,
		Store:  stores.NewTaskStore(database, stores.WithHidden(cfg.IsHidden)),
		KV:     stores.NewKVStore(database),
		Users:  stores.NewUserStore(database),
		Auth: auth.NewClient(auth.Config{
			URL:       cfg.Auth.URL,
			AppID:     cfg.Auth.AppID,
			RealmPath: cfg.Auth.RealmPath,
			Timeout:   cfg.Auth.Timeout,
		}, nil),
	}
}

func (s *Service) appOptions() AppOptions {
	return AppOptions{
		IconWidth:   s.Config.Gestures.IconWidth,
		RowHeight:   float64(s.Config.Gestures.RowHeight),
		Placement:   s.Config.Lists.UncompletePlacement,
		TaskPalette: s.Config.TaskPalette(),
		ListPalette: s.Config.ListPalette(),
	}
}

func (s *Service) controllerOptions() Options {
	o := s.appOptions()
	return Options{
		IconWidth: o.IconWidth,
		RowHeight: o.RowHeight,
		Placement: o.Placement,
		Palette:   o.TaskPalette,
	}
}

// NewApp opens the navigator on the lists screen.
func (s *Service) NewApp(ctx context.Context) (*App, error) {
	return NewApp(ctx, s.Store, s.KV, s.appOptions())
}

// OpenDB opens the database in cfg.DataDir with the configured pool and
// busy timeout.
func OpenDB(cfg *config.Config) (*db.DB, error) {
	return db.Open(cfg.DataDir, db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	})
}

// RecoverDatabase closes the database, moves the damaged files aside and
// rebinds the Service to a fresh database with the default list. It returns
// the backup path. Stores taken from the Service before the call are closed.
func (s *Service) RecoverDatabase(ctx context.Context) (string, error) {
	if err := s.DB.Close(); err != nil {
		return "", fmt.Errorf("close database: %w", err)
	}

	backup, err := stores.RecoverFromCorruption(s.Config.DataDir)
	if err != nil {
		return "", err
	}

	database, err := OpenDB(s.Config)
	if err != nil {
		return backup, fmt.Errorf("reopen database: %w", err)
	}
	*s = *NewService(s.Config, database)

	return backup, s.EnsureDefaultList(ctx)
}

// EnsureDefaultList seeds the default list on first run.
func (s *Service) EnsureDefaultList(ctx context.Context) error {
	created, err := s.Store.EnsureDefaultList(ctx, s.Config.Lists.DefaultName)
	if err != nil {
		return fmt.Errorf("ensure default list: %w", err)
	}
	if created {
		if err := kv.Scoped[string](s.KV, "nav").Set(ctx, lastListKey, task.DefaultListID); err != nil {
			return fmt.Errorf("remember default list: %w", err)
		}
	}
	return nil
}

// ResolveList finds a list by reference. An empty reference means the most
// recently opened list, or the default list.
func (s *Service) ResolveList(ctx context.Context, ref string) (task.List, error) {
	if ref == "" {
		ref = kv.Scoped[string](s.KV, "nav").GetOr(ctx, lastListKey, task.DefaultListID)
		if l, err := s.Store.GetList(ctx, ref); err == nil {
			return l, nil
		}
		ref = task.DefaultListID
	}
	return s.Store.FindList(ctx, ref)
}

// WithLists runs fn with a controller over the lists collection.
func (s *Service) WithLists(ctx context.Context, fn func(c *Controller) error) error {
	coll, err := s.Store.OpenLists(ctx)
	if err != nil {
		return err
	}
	o := s.controllerOptions()
	o.Palette = s.Config.ListPalette()
	c := New(coll, o)
	defer c.Close()
	return fn(c)
}

// WithTasks runs fn with a controller over the tasks of the referenced list.
func (s *Service) WithTasks(ctx context.Context, listRef string, fn func(l task.List, c *Controller) error) error {
	l, err := s.ResolveList(ctx, listRef)
	if err != nil {
		return err
	}
	coll, err := s.Store.OpenTasks(ctx, l.ID)
	if err != nil {
		return err
	}
	c := New(coll, s.controllerOptions())
	defer c.Close()
	return fn(l, c)
}

// ResolveRow finds a row of c by 1-based position, exact ID,
// case-insensitive text, or unique ID prefix, in that order.
func ResolveRow(c *Controller, ref string) (task.Row, error) {
	ref = strings.TrimSpace(ref)
	rows := c.Rows()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(rows) {
			return task.Row{}, fmt.Errorf("position %d: %w", n, task.ErrOutOfRange)
		}
		return rows[n-1], nil
	}

	for _, r := range rows {
		if r.ID == ref {
			return r, nil
		}
	}

	var byText, byPrefix []task.Row
	for _, r := range rows {
		if ref != "" && strings.HasPrefix(strings.ToLower(r.ID), strings.ToLower(ref)) {
			byPrefix = append(byPrefix, r)
		}
		if strings.EqualFold(r.Text, ref) {
			byText = append(byText, r)
		}
	}
	for _, matches := range [][]task.Row{byText, byPrefix} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			return task.Row{}, fmt.Errorf("%q: %w", ref, ErrAmbiguousRef)
		}
	}
	return task.Row{}, fmt.Errorf("%q: %w", ref, task.ErrNotFound)
}

// Authenticate logs in, or registers when register is set, and stores the
// issued token.
func (s *Service) Authenticate(ctx context.Context, username, password string, register bool) (account.User, error) {
	call := s.Auth.LogIn
	if register {
		call = s.Auth.Register
	}
	token, err := call(ctx, username, password)
	if err != nil {
		return account.User{}, err
	}
	u := account.User{Username: username, Token: token}
	if err := s.Users.Save(ctx, u); err != nil {
		return account.User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// LogOut removes the stored token. Logging out when nobody is signed in is
// not an error.
func (s *Service) LogOut(ctx context.Context) error {
	if _, err := s.Users.Current(ctx); errors.Is(err, account.ErrNotLoggedIn) {
		return nil
	}
	return s.Users.Clear(ctx)
}
