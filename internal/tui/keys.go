package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the keyboard equivalents of the pointer gestures.
type keyMap struct {
	Up             key.Binding
	Down           key.Binding
	Complete       key.Binding
	Delete         key.Binding
	MoveUp         key.Binding
	MoveDown       key.Binding
	New            key.Binding
	Insert         key.Binding
	Edit           key.Binding
	Open           key.Binding
	Back           key.Binding
	ClearCompleted key.Binding
	Help           key.Binding
	Quit           key.Binding

	Commit key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Complete:       key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "complete")),
		Delete:         key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		MoveUp:         key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move up")),
		MoveDown:       key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move down")),
		New:            key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new at top")),
		Insert:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add at end")),
		Edit:           key.NewBinding(key.WithKeys("e", "i"), key.WithHelp("e", "edit")),
		Open:           key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		Back:           key.NewBinding(key.WithKeys("h", "backspace", "esc"), key.WithHelp("h", "lists")),
		ClearCompleted: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear done")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Commit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.Delete, k.New, k.Open, k.Back, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown},
		{k.Complete, k.Delete, k.ClearCompleted},
		{k.New, k.Insert, k.Edit},
		{k.Open, k.Back, k.Help, k.Quit},
	}
}

// editKeyMap is shown in the footer while a row is being edited.
type editKeyMap struct{ keyMap }

func (k editKeyMap) ShortHelp() []key.Binding { return []key.Binding{k.Commit, k.Cancel} }

func (k editKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
