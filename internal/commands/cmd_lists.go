package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/core/validate"
	"github.com/colonyops/tasks/internal/tasks"
)

type ListsCmd struct {
	flags *Flags
	svc   *tasks.Service

	jsonOutput bool
	match      string
	top        bool
}

// NewListsCmd creates the lists command group.
func NewListsCmd(flags *Flags, svc *tasks.Service) *ListsCmd {
	return &ListsCmd{flags: flags, svc: svc}
}

// Register adds the lists command group to the application.
func (cmd *ListsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "lists",
		Aliases: []string{"list"},
		Usage:   "Manage lists",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "Show all lists",
				UsageText: "tasks lists ls [--match <glob>] [--json]",
				Description: `Prints every list with its remaining task count. Lists hidden by the
lists.hidden config are skipped.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "match",
						Aliases:     []string{"m"},
						Usage:       "only show lists whose name matches the glob",
						Destination: &cmd.match,
					},
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runLs,
			},
			{
				Name:      "add",
				Usage:     "Create a list",
				UsageText: "tasks lists add [--top] <name...>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "top",
						Usage:       "insert at the head of the lists",
						Destination: &cmd.top,
					},
				},
				Action: cmd.runAdd,
			},
			{
				Name:          "rm",
				Usage:         "Delete a list and all of its tasks",
				UsageText:     "tasks lists rm <ref>",
				ShellComplete: ListNameCompleter(cmd.svc),
				Action:        cmd.runRm,
			},
			{
				Name:      "complete",
				Usage:     "Toggle a list's completion",
				UsageText: "tasks lists complete <ref>",
				Description: `Marks a list completed and moves it to the end, or reopens a completed
list. A list with no uncompleted tasks cannot be completed.`,
				ShellComplete: ListNameCompleter(cmd.svc),
				Action:        cmd.runComplete,
			},
		},
	})

	return app
}

// listLine is the JSON output format of lists ls.
type listLine struct {
	Position  int    `json:"position"`
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Remaining int    `json:"remaining"`
}

func (cmd *ListsCmd) runLs(ctx context.Context, c *cli.Command) error {
	if cmd.match != "" && !doublestar.ValidatePattern(cmd.match) {
		return fmt.Errorf("invalid glob %q", cmd.match)
	}

	return cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
		var lines []listLine
		for i, r := range ctrl.Rows() {
			if cmd.match != "" {
				if ok, _ := doublestar.Match(cmd.match, r.Text); !ok {
					continue
				}
			}
			lines = append(lines, listLine{
				Position:  i + 1,
				ID:        r.ID,
				Text:      r.Text,
				Completed: r.Completed,
				Remaining: max(r.Badge, 0),
			})
		}

		out := c.Root().Writer
		if wantJSON(c, cmd.jsonOutput) {
			return writeLines(out, lines)
		}

		if len(lines) == 0 {
			_, _ = fmt.Fprintln(c.Root().ErrWriter, "no lists")
			return nil
		}
		rows := make([][]any, len(lines))
		for i, l := range lines {
			rows[i] = []any{l.Position, check(l.Completed), l.Text, l.Remaining, shortID(l.ID)}
		}
		table(out, "#\t \tNAME\tLEFT\tID", rows)
		return nil
	})
}

func (cmd *ListsCmd) runAdd(ctx context.Context, c *cli.Command) error {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if err := validate.ItemText(name); err != nil {
		return err
	}

	return cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
		if _, err := addRow(ctx, ctrl, name, cmd.top); err != nil {
			return err
		}
		success(c.Root().Writer, "Created list %q", name)
		return nil
	})
}

func (cmd *ListsCmd) runRm(ctx context.Context, c *cli.Command) error {
	return cmd.withList(ctx, c, func(ctrl *tasks.Controller, l task.List) error {
		if err := ctrl.DeleteItem(ctx, l.ID); err != nil {
			return err
		}
		success(c.Root().Writer, "Deleted list %q", l.Text)
		return nil
	})
}

func (cmd *ListsCmd) runComplete(ctx context.Context, c *cli.Command) error {
	return cmd.withList(ctx, c, func(ctrl *tasks.Controller, l task.List) error {
		if !l.Completed && l.Remaining == 0 {
			return fmt.Errorf("list %q has no uncompleted tasks", l.Text)
		}
		if err := ctrl.CompleteItem(ctx, l.ID); err != nil {
			return err
		}
		verb := "Completed"
		if l.Completed {
			verb = "Reopened"
		}
		success(c.Root().Writer, "%s list %q", verb, l.Text)
		return nil
	})
}

// withList resolves the first argument to a list.
func (cmd *ListsCmd) withList(ctx context.Context, c *cli.Command, fn func(*tasks.Controller, task.List) error) error {
	ref := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if ref == "" {
		return fmt.Errorf("list reference is required")
	}
	l, err := cmd.svc.ResolveList(ctx, ref)
	if err != nil {
		return err
	}
	return cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
		return fn(ctrl, l)
	})
}
