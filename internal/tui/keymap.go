package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the session screen.
type KeyMap struct {
	Record    key.Binding
	Generate  key.Binding
	StartOver key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Record: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "record/stop"),
		),
		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate image"),
		),
		StartOver: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "start over"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
