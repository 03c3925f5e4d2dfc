package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/tasks/internal/core/styles"
	"github.com/colonyops/tasks/pkg/iojson"
)

// wantJSON reports whether output should be JSON lines: when asked for, or
// when stdout is not a terminal.
func wantJSON(c *cli.Command, forced bool) bool {
	if forced {
		return true
	}
	if f, ok := c.Root().Writer.(*os.File); ok {
		return !term.IsTerminal(int(f.Fd()))
	}
	return true
}

// table writes rows through a tabwriter with a styled header.
func table(w io.Writer, header string, rows [][]any) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, styles.CommandHeaderStyle.Render(header))
	for _, r := range rows {
		for i, v := range r {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, v)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// writeLines writes each item as one JSON line.
func writeLines[T any](w io.Writer, items []T) error {
	for _, item := range items {
		if err := iojson.WriteLine(w, item); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
	}
	return nil
}

func success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, styles.TextSuccessStyle.Render(styles.IconCheck+" "+fmt.Sprintf(format, args...)))
}

func check(done bool) string {
	if done {
		return styles.TextSuccessStyle.Render(styles.IconCheck)
	}
	return styles.TextMutedStyle.Render(styles.IconBullet)
}
