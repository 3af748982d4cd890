package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Step       key.Binding
	Rewind     key.Binding
	ToggleJSON key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Step: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "run next step"),
	),
	Rewind: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restart scenario"),
	),
	ToggleJSON: key.NewBinding(
		key.WithKeys("j"),
		key.WithHelp("j", "toggle raw snapshot"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
