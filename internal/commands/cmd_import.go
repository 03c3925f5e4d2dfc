package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/core/task"
	"github.com/colonyops/tasks/internal/core/validate"
	"github.com/colonyops/tasks/internal/tasks"
	"github.com/colonyops/tasks/pkg/iojson"
)

// Archive is the JSON document written by export and read by import.
type Archive struct {
	Lists []ArchiveList `json:"lists"`
}

type ArchiveList struct {
	Name      string        `json:"name"`
	Completed bool          `json:"completed,omitempty"`
	Tasks     []ArchiveTask `json:"tasks"`
}

type ArchiveTask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed,omitempty"`
}

// Validate checks the archive for errors using criterio.
func (a Archive) Validate() error {
	if len(a.Lists) == 0 {
		return criterio.NewFieldErrors("lists", fmt.Errorf("array is empty"))
	}

	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool)
	for i, l := range a.Lists {
		field := fmt.Sprintf("lists[%d]", i)

		if err := validate.ItemText(l.Name); err != nil {
			errs = errs.Append(field+".name", err)
			continue
		}
		key := strings.ToLower(strings.TrimSpace(l.Name))
		if seen[key] {
			errs = errs.Append(field+".name", fmt.Errorf("duplicate list %q", l.Name))
			continue
		}
		seen[key] = true

		for j, t := range l.Tasks {
			if err := validate.ItemText(t.Text); err != nil {
				errs = errs.Append(fmt.Sprintf("%s.tasks[%d].text", field, j), err)
			}
		}
	}

	return errs.ToError()
}

const (
	StatusCreated = "created" // StatusCreated indicates a new list was created.
	StatusMerged  = "merged"  // StatusMerged indicates tasks were appended to an existing list.
	StatusFailed  = "failed"  // StatusFailed indicates the list could not be imported.
	StatusSkipped = "skipped" // StatusSkipped indicates the list was not attempted due to failure threshold.
	maxFailures   = 3         // maxFailures is the number of failures before stopping the import.
)

// ImportResult reports what happened to one list of the archive.
type ImportResult struct {
	Name   string `json:"name"`
	ListID string `json:"list_id,omitempty"`
	Status string `json:"status"`
	Added  int    `json:"added"`
	Error  string `json:"error,omitempty"`
}

type ArchiveCmd struct {
	flags *Flags
	svc   *tasks.Service
	fr    *iojson.FileReader[Archive]
}

// NewArchiveCmd creates the import and export commands.
func NewArchiveCmd(flags *Flags, svc *tasks.Service) *ArchiveCmd {
	return &ArchiveCmd{
		flags: flags,
		svc:   svc,
		fr:    &iojson.FileReader[Archive]{},
	}
}

// Register adds import and export to the application.
func (cmd *ArchiveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "export",
			Usage:     "Write every list and its tasks as JSON",
			UsageText: `tasks export > lists.json`,
			Description: `Writes all visible lists in display order. The output can be read back
with tasks import.`,
			Action: cmd.runExport,
		},
		&cli.Command{
			Name:  "import",
			Usage: "Create lists and tasks from JSON input",
			UsageText: `tasks import [options]

Read from stdin:
  echo '{"lists":[{"name":"Groceries","tasks":[{"text":"eggs"}]}]}' | tasks import

Read from file:
  tasks import -f lists.json`,
			Description: `Creates lists and tasks from a JSON document in the format written by
tasks export.

A list whose name matches an existing list is merged: its tasks are added
to the existing list. Uncompleted tasks are inserted above the completed
ones, completed tasks are appended to the end.

Processing stops after 3 failed lists. Lists not attempted are marked as
skipped.

Input JSON schema:
  {
    "lists": [
      {
        "name": "list name",
        "completed": false,
        "tasks": [
          {"text": "task text", "completed": false}
        ]
      }
    ]
  }

Output is JSON with the result for each list.`,
			Flags:  []cli.Flag{cmd.fr.Flag()},
			Action: cmd.runImport,
		},
	)

	return app
}

func (cmd *ArchiveCmd) runExport(ctx context.Context, c *cli.Command) error {
	var archive Archive
	err := cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
		for _, r := range ctrl.Rows() {
			items, err := cmd.svc.Store.ListTasks(ctx, r.ID)
			if err != nil {
				return err
			}
			l := ArchiveList{Name: r.Text, Completed: r.Completed, Tasks: make([]ArchiveTask, len(items))}
			for i, t := range items {
				l.Tasks[i] = ArchiveTask{Text: t.Text, Completed: t.Completed}
			}
			archive.Lists = append(archive.Lists, l)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, archive)
}

func (cmd *ArchiveCmd) runImport(ctx context.Context, c *cli.Command) error {
	logger := log.With().Str("component", "import").Logger()

	archive, err := cmd.fr.Read()
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := archive.Validate(); err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	results := make([]ImportResult, 0, len(archive.Lists))
	failures := 0
	for i, l := range archive.Lists {
		if failures >= maxFailures {
			logger.Warn().Str("name", l.Name).Msg("skipping list due to failure threshold")
			for j := i; j < len(archive.Lists); j++ {
				results = append(results, ImportResult{Name: archive.Lists[j].Name, Status: StatusSkipped})
			}
			break
		}

		result := cmd.importList(ctx, l)
		results = append(results, result)
		if result.Status == StatusFailed {
			failures++
			logger.Error().Str("name", l.Name).Str("error", result.Error).Msg("list import failed")
		} else {
			logger.Info().Str("name", l.Name).Int("added", result.Added).Msg("list imported")
		}
	}

	out := struct {
		Results []ImportResult `json:"results"`
	}{Results: results}
	if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
		return err
	}

	if failures > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ArchiveCmd) importList(ctx context.Context, in ArchiveList) ImportResult {
	name := strings.TrimSpace(in.Name)
	result := ImportResult{Name: name, Status: StatusMerged}
	fail := func(err error) ImportResult {
		result.Status = StatusFailed
		result.Error = err.Error()
		return result
	}

	l, err := cmd.findList(ctx, name)
	switch {
	case errors.Is(err, task.ErrNotFound):
		err = cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
			id, err := addRow(ctx, ctrl, name, false)
			l.ID = id
			return err
		})
		if err != nil {
			return fail(err)
		}
		result.Status = StatusCreated
	case err != nil:
		return fail(err)
	}
	result.ListID = l.ID

	err = cmd.svc.WithTasks(ctx, l.ID, func(_ task.List, ctrl *tasks.Controller) error {
		for _, t := range in.Tasks {
			id, err := addRow(ctx, ctrl, strings.TrimSpace(t.Text), false)
			if err != nil {
				return err
			}
			if t.Completed {
				if err := ctrl.CompleteItem(ctx, id); err != nil {
					return err
				}
			}
			result.Added++
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	if in.Completed {
		err := cmd.svc.WithLists(ctx, func(ctrl *tasks.Controller) error {
			for _, r := range ctrl.Rows() {
				if r.ID == l.ID && !r.Completed {
					return ctrl.CompleteItem(ctx, l.ID)
				}
			}
			return nil
		})
		if err != nil {
			return fail(err)
		}
	}

	return result
}

// findList matches by name only; ID prefixes never merge.
func (cmd *ArchiveCmd) findList(ctx context.Context, name string) (task.List, error) {
	lists, err := cmd.svc.Store.ListLists(ctx)
	if err != nil {
		return task.List{}, err
	}
	for _, l := range lists {
		if strings.EqualFold(l.Text, name) {
			return l, nil
		}
	}
	return task.List{}, task.ErrNotFound
}
