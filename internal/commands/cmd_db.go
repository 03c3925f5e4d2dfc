package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/tasks"
)

type DBCmd struct {
	flags *Flags
	svc   *tasks.Service

	jsonOutput bool
	steps      int
}

// NewDBCmd creates the database maintenance commands.
func NewDBCmd(flags *Flags, svc *tasks.Service) *DBCmd {
	return &DBCmd{flags: flags, svc: svc}
}

// Register adds the db command group to the application.
func (cmd *DBCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Database maintenance commands",
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Show schema migrations",
				UsageText: "tasks db status [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runStatus,
			},
			{
				Name:      "migrate-down",
				Usage:     "Revert the most recent schema migrations",
				UsageText: "tasks db migrate-down [--steps n]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "steps",
						Usage:       "number of migrations to revert",
						Value:       1,
						Destination: &cmd.steps,
					},
				},
				Action: cmd.runMigrateDown,
			},
		},
	})

	return app
}

func (cmd *DBCmd) runStatus(ctx context.Context, c *cli.Command) error {
	status, err := db.Status(ctx, cmd.svc.DB.Conn())
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	out := c.Root().Writer
	if wantJSON(c, cmd.jsonOutput) {
		return writeLines(out, status)
	}

	_, _ = fmt.Fprintln(out, cmd.svc.DB.Path())
	rows := make([][]any, len(status))
	for i, m := range status {
		rows[i] = []any{check(m.Applied), m.Version, m.Name}
	}
	table(out, " \tVERSION\tNAME", rows)
	return nil
}

func (cmd *DBCmd) runMigrateDown(ctx context.Context, c *cli.Command) error {
	if cmd.steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}

	logger := log.With().Str("component", "db").Logger()
	if err := db.MigrateDown(ctx, cmd.svc.DB.Conn(), logger, cmd.steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	success(c.Root().Writer, "Reverted %d migration(s)", cmd.steps)
	return nil
}
