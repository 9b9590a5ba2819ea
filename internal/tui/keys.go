package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Panes
	NextPane key.Binding
	PrevPane key.Binding

	// Actions
	Quit          key.Binding
	Help          key.Binding
	Escape        key.Binding
	Filter        key.Binding
	Apply         key.Binding
	Submit        key.Binding
	Clear         key.Binding
	OutputDir     key.Binding
	TogglePreview key.Binding
	Enter         key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Panes
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous pane"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/clear"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Apply: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "use marked files"),
		),
		Submit: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "remove background"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear selection"),
		),
		OutputDir: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "output directory"),
		),
		TogglePreview: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "toggle preview"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open/submit"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
