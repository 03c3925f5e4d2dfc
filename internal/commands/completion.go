package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/tasks/internal/tasks"
)

// ListNameCompleter returns a ShellCompleteFunc that suggests list names as
// positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func ListNameCompleter(svc *tasks.Service) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if svc.Store == nil {
			return
		}
		lists, err := svc.Store.ListLists(ctx)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, l := range lists {
			_, _ = fmt.Fprintln(w, l.Text)
		}
	}
}
