package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/tasks"
	"github.com/colonyops/tasks/internal/tui"
)

type TuiCmd struct {
	flags *Flags
	svc   *tasks.Service
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, svc *tasks.Service) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		svc:   svc,
	}
}

// Register adds the tui command to the application.
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Open the interactive list manager",
		UsageText: "tasks tui",
		Description: `Opens the interactive list manager. This is also what runs when tasks is
invoked without a command.

Swipe a row right to complete it and left to delete it, hold a row to
reorder it, and pull the list down to create a new item.`,
		Action: cmd.run,
	})

	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	app, err := cmd.svc.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("open lists: %w", err)
	}
	defer app.Close()

	watcher := tasks.NewWatcher(cmd.svc.DB.Path(), log.Logger)
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	}

	m := tui.New(ctx, app, tui.OptionsFromConfig(cmd.svc.Config, watcher))
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
