package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/colonyops/tasks/internal/core/styles"
)

const gestureHelp = `## Gestures

| Gesture | Action |
|---|---|
| Drag a row right | Complete, or un-complete a done item |
| Drag a row left | Delete |
| Hold, then drag | Reorder |
| Pull down past one row | Create an item at the top |
| Pull down past two rows | Back to lists |
| Pull up past one row | Clear completed, or open the last list |
| Click a row | Edit |
| Click the right half of a list | Open it |
| Click empty space | Add an item at the end |
`

// helpMarkdown builds the help document from the key bindings.
func helpMarkdown(k keyMap) string {
	var b strings.Builder
	b.WriteString("# Tasks\n\n")
	b.WriteString(gestureHelp)
	b.WriteString("\n## Keys\n\n| Key | Action |\n|---|---|\n")
	for _, group := range k.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\nPress any key to close.\n")
	return b.String()
}

// renderHelp renders the help document for the given terminal width.
func renderHelp(k keyMap, width int) string {
	md := helpMarkdown(k)
	wrap := max(min(width-4, 80), 20)

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return styles.ModalStyle.Render(md)
	}
	out, err := r.Render(md)
	if err != nil {
		return styles.ModalStyle.Render(md)
	}
	return styles.ModalStyle.Render(strings.TrimSpace(out))
}
