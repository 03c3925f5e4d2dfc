package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/core/doctor"
	"github.com/colonyops/tasks/internal/core/styles"
	"github.com/colonyops/tasks/internal/tasks"
	"github.com/colonyops/tasks/pkg/iojson"
)

type DoctorCmd struct {
	flags   *Flags
	svc     *tasks.Service
	format  string
	autofix bool
}

func NewDoctorCmd(flags *Flags, svc *tasks.Service) *DoctorCmd {
	return &DoctorCmd{flags: flags, svc: svc}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "doctor",
		Usage:       "Run health checks on your tasks setup",
		UsageText:   "tasks doctor [options]",
		Description: "Runs diagnostic checks on the configuration, the data directory, the database, and the signed-in account.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.BoolFlag{
				Name:        "autofix",
				Usage:       "apply pending migrations and replace a corrupt database",
				Destination: &cmd.autofix,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	results := doctor.RunAll(ctx, []doctor.Check{
		doctor.NewConfigCheck(cmd.svc.Config, cmd.flags.ConfigPath),
		doctor.NewDataDirCheck(cmd.svc.Config.DataDir),
		doctor.NewAccountCheck(cmd.svc.Users),
		// last: recovery replaces the connection the other checks hold
		doctor.NewDatabaseCheck(cmd.svc.DB.Conn(), cmd.autofix, cmd.svc.RecoverDatabase),
	})

	passed, warned, failed := doctor.Summary(results)
	fixable := doctor.CountFixable(results)

	if cmd.format == "json" {
		out := struct {
			Healthy bool            `json:"healthy"`
			Summary summaryJSON     `json:"summary"`
			Checks  []doctor.Result `json:"checks"`
		}{
			Healthy: failed == 0,
			Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed, Fixable: fixable},
			Checks:  results,
		}
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
			return err
		}
	} else {
		outputDoctor(c.Root().Writer, results, passed, warned, failed)
		if fixable > 0 && !cmd.autofix {
			_, _ = fmt.Fprintf(c.Root().Writer, "\nRun 'tasks doctor --autofix' to fix %d issue(s)\n", fixable)
		}
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

type summaryJSON struct {
	Passed  int `json:"passed"`
	Warned  int `json:"warned"`
	Failed  int `json:"failed"`
	Fixable int `json:"fixable"`
}

func outputDoctor(w io.Writer, results []doctor.Result, passed, warned, failed int) {
	divider := styles.DividerStyle.Render(strings.Repeat("─", 40))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.CommandHeaderStyle.Render("Tasks Doctor"))
	_, _ = fmt.Fprintln(w, divider)
	_, _ = fmt.Fprintln(w)

	for _, result := range results {
		_, _ = fmt.Fprintln(w, styles.CommandHeaderStyle.Render(result.Name))

		for _, item := range result.Items {
			var detail string
			if item.Detail != "" {
				detail = " " + styles.TextMutedStyle.Render(item.Detail)
			}

			var icon string
			switch item.Status {
			case doctor.StatusPass:
				icon = styles.TextSuccessStyle.Render(styles.IconCheck)
			case doctor.StatusWarn:
				icon = styles.TextWarningStyle.Render(styles.IconBullet)
			case doctor.StatusFail:
				icon = styles.TextErrorStyle.Render(styles.IconCross)
			}

			_, _ = fmt.Fprintf(w, "  %s %s%s\n", icon, item.Label, detail)
		}

		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		styles.TextSuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		styles.TextWarningStyle.Render(fmt.Sprintf("%d warnings", warned)),
		styles.TextErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	)
}
