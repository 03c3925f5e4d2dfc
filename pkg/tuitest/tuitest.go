// Package tuitest provides testing utilities for TUI components.
package tuitest

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape codes and trailing whitespace so rendered
// views can be compared as plain text.
func StripANSI(s string) string {
	s = ansi.Strip(s)
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		result = append(result, strings.TrimRight(line, " "))
	}
	return strings.TrimRight(strings.Join(result, "\n"), "\n")
}

// KeyPress creates a key message for a single rune.
func KeyPress(key rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}}
}

// KeyPressString creates a key message carrying every rune of s, the way a
// paste arrives.
func KeyPressString(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// KeyDown creates a down arrow key message.
func KeyDown() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyDown} }

// KeyUp creates an up arrow key message.
func KeyUp() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyUp} }

// KeyEnter creates an enter key message.
func KeyEnter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

// KeyEsc creates an escape key message.
func KeyEsc() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEsc} }

// KeyBackspace creates a backspace key message.
func KeyBackspace() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyBackspace} }

// WindowSize creates a window size message.
func WindowSize(w, h int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: w, Height: h}
}

// Press creates a left button press at column x, line y.
func Press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

// Drag creates a motion event with the left button held.
func Drag(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft}
}

// Release creates a left button release.
func Release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
}

// Wheel creates a wheel event; positive n scrolls down.
func Wheel(n int) tea.MouseMsg {
	b := tea.MouseButtonWheelDown
	if n < 0 {
		b = tea.MouseButtonWheelUp
	}
	return tea.MouseMsg{Action: tea.MouseActionPress, Button: b}
}
