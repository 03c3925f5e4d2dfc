package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/tasks/internal/core/gesture"
	"github.com/colonyops/tasks/internal/core/gradient"
	"github.com/colonyops/tasks/internal/core/kv"
	"github.com/colonyops/tasks/internal/core/logging"
	"github.com/colonyops/tasks/internal/core/task"
)

// Source opens the collections the navigator presents.
type Source interface {
	OpenLists(ctx context.Context) (task.Collection, error)
	OpenTasks(ctx context.Context, listID string) (task.Collection, error)
}

// Screen identifies which level of the hierarchy is shown.
type Screen int

const (
	ScreenLists Screen = iota
	ScreenTasks
)

const lastListKey = "last_list"

// AppOptions configures an App.
type AppOptions struct {
	IconWidth   float64
	RowHeight   float64
	Placement   string
	TaskPalette gradient.Palette
	ListPalette gradient.Palette
}

// App owns the lists screen controller and, while a list is open, the tasks
// screen controller. It is constructed per session and passed to the
// front-end explicitly.
type App struct {
	src  Source
	nav  *kv.TypedKV[string]
	opts AppOptions
	log  zerolog.Logger

	lists  *Controller
	tasks  *Controller
	screen Screen
}

// NewApp opens the lists collection and returns a navigator on the lists
// screen. store persists the most recently opened list.
func NewApp(ctx context.Context, src Source, store kv.KV, opts AppOptions) (*App, error) {
	coll, err := src.OpenLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("open lists: %w", err)
	}

	a := &App{
		src:  src,
		nav:  kv.Scoped[string](store, "nav"),
		opts: opts,
		log:  logging.Component("navigator"),
	}
	palette := opts.ListPalette
	if len(palette) < 2 {
		palette = gradient.ListColors
	}
	a.lists = New(coll, Options{
		IconWidth: opts.IconWidth,
		RowHeight: opts.RowHeight,
		Placement: opts.Placement,
		Palette:   palette,
	})
	a.lists.SetHasChild(a.lastList(ctx) != "")
	return a, nil
}

// Screen returns the visible screen.
func (a *App) Screen() Screen { return a.screen }

// Current returns the controller of the visible screen.
func (a *App) Current() *Controller {
	if a.screen == ScreenTasks && a.tasks != nil {
		return a.tasks
	}
	return a.lists
}

// Lists returns the lists screen controller.
func (a *App) Lists() *Controller { return a.lists }

func (a *App) lastList(ctx context.Context) string {
	id := a.nav.GetOr(ctx, lastListKey, "")
	if id == "" {
		return ""
	}
	if a.lists.indexOf(id) < 0 {
		if err := a.nav.Delete(ctx, lastListKey); err != nil {
			a.log.Warn().Err(err).Msg("forget deleted list")
		}
		return ""
	}
	return id
}

// OpenList shows the tasks of listID.
func (a *App) OpenList(ctx context.Context, listID string) error {
	coll, err := a.src.OpenTasks(ctx, listID)
	if err != nil {
		return fmt.Errorf("open list: %w", err)
	}

	if a.tasks != nil {
		a.tasks.Close()
	}
	a.tasks = New(coll, Options{
		IconWidth: a.opts.IconWidth,
		RowHeight: a.opts.RowHeight,
		Placement: a.opts.Placement,
		Palette:   a.opts.TaskPalette,
		HasParent: true,
		OnWrite: func(ctx context.Context) {
			if err := a.lists.Collection().Refresh(ctx); err != nil {
				a.log.Warn().Err(err).Msg("refresh lists after write")
			}
		},
	})
	a.screen = ScreenTasks

	if err := a.nav.Set(ctx, lastListKey, listID); err != nil {
		a.log.Warn().Err(err).Msg("remember last list")
	}
	a.lists.SetHasChild(true)
	a.log.Debug().Str("list_id", listID).Msg("opened list")
	return nil
}

// Back returns to the lists screen.
func (a *App) Back() {
	if a.tasks != nil {
		a.tasks.Close()
		a.tasks = nil
	}
	a.screen = ScreenLists
}

// Refresh reloads both collections so external writes become visible.
func (a *App) Refresh(ctx context.Context) error {
	var errs []error
	if err := a.lists.Collection().Refresh(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.tasks != nil {
		if err := a.tasks.Collection().Refresh(ctx); err != nil && !errors.Is(err, task.ErrInvalidated) {
			errs = append(errs, err)
		}
	}
	a.checkInvalidated(ctx)
	return errors.Join(errs...)
}

// checkInvalidated leaves a tasks screen whose list was deleted.
func (a *App) checkInvalidated(ctx context.Context) {
	if a.screen == ScreenTasks && a.tasks != nil && a.tasks.Invalidated() && !a.tasks.Busy() {
		a.log.Info().Msg("open list was deleted, returning to lists")
		a.Back()
	}
	a.lists.SetHasChild(a.lastList(ctx) != "")
}

// EndPull resolves an overscroll release on the current screen, including
// the navigation intents.
func (a *App) EndPull(ctx context.Context) (gesture.PullIntent, error) {
	intent, err := a.Current().EndPull(ctx)
	if err != nil {
		return intent, err
	}

	switch intent {
	case gesture.IntentNavigateUp:
		a.Back()
	case gesture.IntentNavigateDown:
		if id := a.lastList(ctx); id != "" {
			return intent, a.OpenList(ctx, id)
		}
		_, err := a.lists.DeleteCompleted(ctx)
		return gesture.IntentDeleteCompleted, err
	}
	return intent, nil
}

// Close releases every subscription.
func (a *App) Close() {
	if a.tasks != nil {
		a.tasks.Close()
	}
	a.lists.Close()
}
