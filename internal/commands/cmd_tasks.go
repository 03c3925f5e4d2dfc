package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/core/validate"
	"github.com/colonyops/tasks/internal/tasks"
)

// TasksCmd implements the task commands: ls, add, done, rm, mv and
// clear-completed. Every mutation goes through the list controller, so the
// CLI keeps completed items at the tail exactly like the TUI does.
type TasksCmd struct {
	flags *Flags
	svc   *tasks.Service

	list       string
	jsonOutput bool
	top        bool
	lists      bool
}

// NewTasksCmd creates the task commands.
func NewTasksCmd(flags *Flags, svc *tasks.Service) *TasksCmd {
	return &TasksCmd{flags: flags, svc: svc}
}

func (cmd *TasksCmd) listFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "list",
		Aliases:     []string{"l"},
		Usage:       "list name, ID or ID prefix (defaults to the last opened list)",
		Destination: &cmd.list,
	}
}

// Register adds the task commands to the application.
func (cmd *TasksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "ls",
			Usage:     "List the tasks of a list",
			UsageText: "tasks ls [--list <ref>] [--json]",
			Description: `Prints the tasks of a list in display order. Uncompleted tasks come
first, completed tasks are kept at the tail.

Output is JSON lines when --json is set or stdout is not a terminal.`,
			Flags: []cli.Flag{
				cmd.listFlag(),
				&cli.BoolFlag{
					Name:        "json",
					Usage:       "output as JSON lines",
					Destination: &cmd.jsonOutput,
				},
			},
			Action: cmd.runLs,
		},
		&cli.Command{
			Name:      "add",
			Usage:     "Add a task",
			UsageText: "tasks add [--list <ref>] [--top] <text...>",
			Description: `Adds a task just above the first completed task, or at the head of
the list with --top.`,
			Flags: []cli.Flag{
				cmd.listFlag(),
				&cli.BoolFlag{
					Name:        "top",
					Usage:       "insert at the head of the list",
					Destination: &cmd.top,
				},
			},
			Action: cmd.runAdd,
		},
		&cli.Command{
			Name:      "done",
			Usage:     "Toggle a task's completion",
			UsageText: "tasks done [--list <ref>] <ref>",
			Description: `Completes a task and moves it to the end of the list, or un-completes
a completed task. A task is referenced by its position (1-based), ID,
text or ID prefix.`,
			Flags:  []cli.Flag{cmd.listFlag()},
			Action: cmd.runDone,
		},
		&cli.Command{
			Name:      "rm",
			Usage:     "Delete a task",
			UsageText: "tasks rm [--list <ref>] <ref>",
			Flags:     []cli.Flag{cmd.listFlag()},
			Action:    cmd.runRm,
		},
		&cli.Command{
			Name:      "mv",
			Usage:     "Move a task to a new position",
			UsageText: "tasks mv [--list <ref>] <ref> <position>",
			Description: `Moves an uncompleted task to a 1-based position. Completed tasks
cannot be moved, and uncompleted tasks cannot be moved among them.`,
			Flags:  []cli.Flag{cmd.listFlag()},
			Action: cmd.runMv,
		},
		&cli.Command{
			Name:      "clear-completed",
			Usage:     "Delete every completed task of a list",
			UsageText: "tasks clear-completed [--list <ref>] [--lists]",
			Flags: []cli.Flag{
				cmd.listFlag(),
				&cli.BoolFlag{
					Name:        "lists",
					Usage:       "delete completed lists instead",
					Destination: &cmd.lists,
				},
			},
			Action: cmd.runClear,
		},
	)

	return app
}

// taskLine is the JSON output format of tasks ls.
type taskLine struct {
	Position  int    `json:"position"`
	ID        string `json:"id"`
	ListID    string `json:"list_id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func (cmd *TasksCmd) runLs(ctx context.Context, c *cli.Command) error {
	return cmd.svc.WithTasks(ctx, cmd.list, func(l task.List, ctrl *tasks.Controller) error {
		rows := ctrl.Rows()
		out := c.Root().Writer

		if wantJSON(c, cmd.jsonOutput) {
			lines := make([]taskLine, len(rows))
			for i, r := range rows {
				lines[i] = taskLine{Position: i + 1, ID: r.ID, ListID: l.ID, Text: r.Text, Completed: r.Completed}
			}
			return writeLines(out, lines)
		}

		if len(rows) == 0 {
			_, _ = fmt.Fprintf(c.Root().ErrWriter, "%s has no tasks\n", l.Text)
			return nil
		}
		table(out, "#\t \tTEXT\tID", tableRows(rows))
		return nil
	})
}

func tableRows(rows []task.Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{i + 1, check(r.Completed), r.Text, shortID(r.ID)}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToLower(id[:8])
	}
	return id
}

func (cmd *TasksCmd) runAdd(ctx context.Context, c *cli.Command) error {
	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if err := validate.ItemText(text); err != nil {
		return err
	}

	return cmd.svc.WithTasks(ctx, cmd.list, func(l task.List, ctrl *tasks.Controller) error {
		if _, err := addRow(ctx, ctrl, text, cmd.top); err != nil {
			return err
		}
		success(c.Root().Writer, "Added %q to %s", text, l.Text)
		return nil
	})
}

// addRow creates a row and commits its text the way an edit does.
func addRow(ctx context.Context, ctrl *tasks.Controller, text string, top bool) (string, error) {
	create := ctrl.InsertAtBoundary
	if top {
		create = ctrl.CreateAtHead
	}
	id, err := create(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("add %q: list is busy", text)
	}
	return id, ctrl.CommitEdit(ctx, text)
}

func (cmd *TasksCmd) runDone(ctx context.Context, c *cli.Command) error {
	return cmd.withRow(ctx, c, func(ctrl *tasks.Controller, r task.Row) error {
		if err := ctrl.CompleteItem(ctx, r.ID); err != nil {
			return err
		}
		verb := "Completed"
		if r.Completed {
			verb = "Reopened"
		}
		success(c.Root().Writer, "%s %q", verb, r.Text)
		return nil
	})
}

func (cmd *TasksCmd) runRm(ctx context.Context, c *cli.Command) error {
	return cmd.withRow(ctx, c, func(ctrl *tasks.Controller, r task.Row) error {
		if err := ctrl.DeleteItem(ctx, r.ID); err != nil {
			return err
		}
		success(c.Root().Writer, "Deleted %q", r.Text)
		return nil
	})
}

func (cmd *TasksCmd) runMv(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("usage: tasks mv <ref> <position>")
	}
	pos, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("parse position %q: %w", c.Args().Get(1), err)
	}

	return cmd.withRow(ctx, c, func(ctrl *tasks.Controller, r task.Row) error {
		if pos < 1 || pos > len(ctrl.Rows()) {
			return fmt.Errorf("position %d: %w", pos, task.ErrOutOfRange)
		}
		if err := ctrl.MoveItem(ctx, r.ID, pos-1); err != nil {
			return err
		}
		if rows := ctrl.Rows(); rows[pos-1].ID != r.ID {
			return fmt.Errorf("cannot move %q among completed tasks", r.Text)
		}
		success(c.Root().Writer, "Moved %q to %d", r.Text, pos)
		return nil
	})
}

// withRow resolves the first argument to a task of the selected list.
func (cmd *TasksCmd) withRow(ctx context.Context, c *cli.Command, fn func(*tasks.Controller, task.Row) error) error {
	ref := c.Args().First()
	if ref == "" {
		return fmt.Errorf("task reference is required")
	}
	return cmd.svc.WithTasks(ctx, cmd.list, func(_ task.List, ctrl *tasks.Controller) error {
		r, err := tasks.ResolveRow(ctrl, ref)
		if err != nil {
			return err
		}
		return fn(ctrl, r)
	})
}

func (cmd *TasksCmd) runClear(ctx context.Context, c *cli.Command) error {
	if cmd.lists {
		return cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
			n, err := ctrl.DeleteCompleted(ctx)
			if err != nil {
				return err
			}
			success(c.Root().Writer, "Deleted %d completed list(s)", n)
			return nil
		})
	}

	return cmd.svc.WithTasks(ctx, cmd.list, func(l task.List, ctrl *tasks.Controller) error {
		n, err := ctrl.DeleteCompleted(ctx)
		if err != nil {
			return err
		}
		success(c.Root().Writer, "Deleted %d completed task(s) from %s", n, l.Text)
		return nil
	})
}
