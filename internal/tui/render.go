package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/colonyops/tasks/internal/core/gesture"
	"github.com/colonyops/tasks/internal/core/gradient"
	"github.com/colonyops/tasks/internal/core/styles"
	"github.com/colonyops/tasks/internal/tasks"
)

var (
	black = colorful.Color{}
	white = colorful.Color{R: 1, G: 1, B: 1}
)

func color(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}

// rowStyle resolves the background and foreground of a row from its swipe
// presentation and edit dimming.
func rowStyle(rv tasks.RowView) (bg, fg colorful.Color) {
	bg = rv.Color
	switch rv.Presentation.Overlay {
	case gesture.OverlayComplete:
		bg = gradient.CompleteGreen
	case gesture.OverlayDim:
		bg = gradient.CompleteDim
	}
	if rv.Lifted {
		bg = bg.BlendRgb(white, 0.15)
	}
	fg = bg.BlendRgb(white, rv.Presentation.TextAlpha)
	if rv.Alpha < 1 {
		bg = black.BlendRgb(bg, rv.Alpha)
		fg = black.BlendRgb(fg, rv.Alpha)
	}
	return bg, fg
}

// struck renders text with its leading fraction struck through.
func struck(text string, fraction float64, base lipgloss.Style) string {
	runes := []rune(text)
	n := int(math.Round(fraction * float64(len(runes))))
	n = max(0, min(n, len(runes)))
	if n == 0 {
		return base.Render(text)
	}
	return base.Strikethrough(true).Render(string(runes[:n])) + base.Render(string(runes[n:]))
}

type rowRender struct {
	width  int
	height int
	// scale converts pointer units to columns.
	scale  float64
	cursor bool
	input  string
}

// render draws one row block of r.height lines.
func (r rowRender) render(rv tasks.RowView) string {
	if r.width <= 0 {
		return ""
	}
	bg, fg := rowStyle(rv)
	base := lipgloss.NewStyle().Background(color(bg)).Foreground(color(fg))

	offset := 0
	if rv.Swiping && r.scale > 0 {
		offset = int(math.Round(rv.Presentation.Offset / r.scale))
		offset = max(-r.width, min(offset, r.width))
	}
	contentW := r.width - abs(offset)

	content := r.content(rv, base, contentW)
	block := base.Width(contentW).Height(r.height).Render(content)

	switch {
	case offset > 0:
		return lipgloss.JoinHorizontal(lipgloss.Top, r.reveal(rv, offset, true), block)
	case offset < 0:
		return lipgloss.JoinHorizontal(lipgloss.Top, block, r.reveal(rv, -offset, false))
	default:
		return block
	}
}

func (r rowRender) content(rv tasks.RowView, base lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	marker := "  "
	switch {
	case rv.Lifted:
		marker = styles.IconGrip + " "
	case r.cursor:
		marker = "› "
	}
	prefix := " " + marker
	if rv.Completed {
		prefix = " " + styles.IconCheck + " "
	}

	badge := ""
	if rv.Badge >= 0 {
		badge = fmt.Sprintf(" %d ", rv.Badge)
	}

	textW := width - lipgloss.Width(prefix) - lipgloss.Width(badge)
	if textW <= 0 {
		return base.Render(ansi.Truncate(prefix, width, ""))
	}

	var text string
	if rv.Editing {
		text = ansi.Truncate(r.input, textW, "")
	} else {
		text = struck(ansi.Truncate(rv.Text, textW, "…"), rv.Presentation.Strike, base)
	}
	gap := max(0, textW-lipgloss.Width(text))
	return base.Render(prefix) + text + base.Render(strings.Repeat(" ", gap)+badge)
}

// reveal draws the area a swipe uncovers: the check icon on the left or the
// cross icon on the right.
func (r rowRender) reveal(rv tasks.RowView, width int, left bool) string {
	p := rv.Presentation
	bg, icon, alpha := gradient.CompleteDim, styles.IconCheck, p.CompleteIconAlpha
	armed := p.Action == gesture.ActionComplete
	if !left {
		icon, alpha = styles.IconCross, p.DeleteIconAlpha
		armed = p.Action == gesture.ActionDelete
	}
	if armed {
		bg = gradient.CompleteGreen
		if !left {
			bg = gradient.DeleteRed
		}
	}
	fg := bg.BlendRgb(white, alpha)
	style := lipgloss.NewStyle().Background(color(bg)).Foreground(color(fg)).Width(width).Height(r.height)

	shift := 0
	if r.scale > 0 {
		shift = abs(int(math.Round(p.IconShift / r.scale)))
	}
	if left {
		return style.Align(lipgloss.Right).Render(icon + strings.Repeat(" ", min(1+shift, max(width-1, 0))))
	}
	return style.Align(lipgloss.Left).Render(strings.Repeat(" ", min(1+shift, max(width-1, 0))) + icon)
}

// renderPlaceholder draws the pull-to-create row above the list.
func renderPlaceholder(ph gesture.Placeholder, width int) string {
	if ph.Kind == gesture.PlaceholderHidden || width <= 0 {
		return strings.Repeat(" ", max(width, 0))
	}
	label := ph.Kind.Label()
	// A row edge-on to the viewer shows only a thin rule.
	if ph.Angle > math.Pi/3 {
		label = strings.Repeat("─", min(width, lipgloss.Width(label)))
	}
	fg := black.BlendRgb(white, ph.Alpha)
	return styles.PlaceholderStyle.
		Foreground(color(fg)).
		Width(width).
		Align(lipgloss.Center).
		Render(ansi.Truncate(label, width, "…"))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
