package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/tasks/internal/core/styles"
)

const (
	statusTTL          = 4 * time.Second
	statusMax          = 3
	statusTickInterval = 100 * time.Millisecond
	statusWidth        = 44
)

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusError
)

type statusMsg struct {
	level     statusLevel
	text      string
	count     int
	remaining time.Duration
}

type statusTickMsg time.Time

func scheduleStatusTick() tea.Cmd {
	return tea.Tick(statusTickInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// statusStack holds the transient messages shown in the bottom right corner.
// A message equal to the newest one bumps its count and TTL instead of
// stacking a duplicate, so a burst of failing writes shows one line.
type statusStack struct {
	msgs    []statusMsg
	ticking bool
}

func (s *statusStack) push(level statusLevel, text string) {
	if n := len(s.msgs); n > 0 && s.msgs[n-1].level == level && s.msgs[n-1].text == text {
		s.msgs[n-1].count++
		s.msgs[n-1].remaining = statusTTL
		return
	}
	s.msgs = append(s.msgs, statusMsg{level: level, text: text, count: 1, remaining: statusTTL})
	if len(s.msgs) > statusMax {
		s.msgs = s.msgs[len(s.msgs)-statusMax:]
	}
}

// tick ages every message by d and drops the expired ones.
func (s *statusStack) tick(d time.Duration) {
	alive := s.msgs[:0]
	for _, m := range s.msgs {
		m.remaining -= d
		if m.remaining > 0 {
			alive = append(alive, m)
		}
	}
	s.msgs = alive
}

func (s *statusStack) empty() bool { return len(s.msgs) == 0 }

// view renders the stack oldest first, right aligned within width.
func (s *statusStack) view(width int) string {
	if s.empty() {
		return ""
	}

	w := min(statusWidth, max(width-2, 10))
	lines := make([]string, 0, len(s.msgs))
	for _, m := range s.msgs {
		icon, style := styles.IconBullet, styles.ToastInfoStyle
		if m.level == statusError {
			icon, style = styles.IconCross, styles.ToastErrorStyle
		}
		text := m.text
		if m.count > 1 {
			text = fmt.Sprintf("%s (x%d)", text, m.count)
		}
		lines = append(lines, style.Width(w).Render(icon+" "+text))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, strings.Join(lines, "\n"))
}
