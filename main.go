package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/commands"
	"github.com/colonyops/tasks/internal/core/config"
	"github.com/colonyops/tasks/internal/core/styles"
	"github.com/colonyops/tasks/internal/data/db"
	"github.com/colonyops/tasks/internal/data/stores"
	"github.com/colonyops/tasks/internal/tasks"
	"github.com/colonyops/tasks/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back
	// to runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		svc       = &tasks.Service{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tasks",
		Usage:     "Swipe, reorder and pull-to-create to-do lists",
		UsageText: "tasks [global options] command [command options]",
		Description: `Tasks keeps lists of to-do items in a local SQLite database.

Run 'tasks' with no arguments to open the interactive list manager: swipe a
row right to complete it, left to delete it, hold it to reorder, and pull
the list down to create a new item.

The ls, add, done, rm and mv commands script the same operations.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKS_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/tasks.log)",
				Sources:     cli.EnvVars("TASKS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Always log to a file; the TUI owns the terminal
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "tasks.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Validation ensures the name is known
			palette, _ := styles.GetPalette(cfg.Theme.Name)
			styles.SetTheme(palette)

			database, err := tasks.OpenDB(cfg)
			if err != nil {
				if stores.IsCorruptionError(err) {
					return ctx, fmt.Errorf("open database: %w (move %s aside or delete it to start over)",
						err, filepath.Join(cfg.DataDir, db.FileName))
				}
				return ctx, fmt.Errorf("open database: %w", err)
			}

			// Populate the pre-allocated Service (commands already hold a pointer to it)
			*svc = *tasks.NewService(cfg, database)

			if err := svc.EnsureDefaultList(ctx); err != nil {
				return ctx, err
			}

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// doctor --autofix may have swapped in a new database
			if svc.DB != nil {
				if err := svc.DB.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, svc)

	app = tuiCmd.Register(app)
	app = commands.NewTasksCmd(flags, svc).Register(app)
	app = commands.NewListsCmd(flags, svc).Register(app)
	app = commands.NewArchiveCmd(flags, svc).Register(app)
	app = commands.NewAuthCmd(flags, svc).Register(app)
	app = commands.NewDBCmd(flags, svc).Register(app)
	app = commands.NewDoctorCmd(flags, svc).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'tasks --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
