package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the terminal dashboard
type KeyMap struct {
	Up   key.Binding
	Down key.Binding

	PrevPage key.Binding
	NextPage key.Binding

	// Enter selects the vessel under the table cursor
	Select key.Binding

	SearchActivate key.Binding // Focus the search box
	SearchConfirm  key.Binding // Leave the search box, keeping the term
	SearchClear    key.Binding // Clear the term

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("p", "left", "pgup"),
		key.WithHelp("p/←", "prev page"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("n", "right", "pgdown"),
		key.WithHelp("n/→", "next page"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	SearchActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	SearchConfirm: key.NewBinding(
		key.WithKeys("enter", "tab"),
		key.WithHelp("enter", "done"),
	),
	SearchClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear search"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp returns the bindings shown in the footer
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Select, k.SearchActivate, k.SearchClear, k.Quit}
}

// FullHelp returns the bindings grouped for the expanded help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.PrevPage, k.NextPage},
		{k.SearchActivate, k.SearchConfirm, k.SearchClear},
		{k.Quit},
	}
}
