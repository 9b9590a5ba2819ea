package components

import "github.com/charmbracelet/bubbles/key"

// ListKeyMap defines key bindings shared by the scrollable list panes
type ListKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	HalfUp   key.Binding
	HalfDown key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Escape   key.Binding
	Enter    key.Binding
	Filter   key.Binding
}

// DefaultListKeyMap returns the default list key bindings
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "go to bottom"),
		),
		HalfUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "half page up"),
		),
		HalfDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("C-d", "half page down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "accept filter"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
	}
}

// BrowserKeyMap defines key bindings specific to the file browser
type BrowserKeyMap struct {
	Open         key.Binding
	Parent       key.Binding
	Mark         key.Binding
	ToggleHidden key.Binding
}

// DefaultBrowserKeyMap returns the default file browser key bindings
func DefaultBrowserKeyMap() BrowserKeyMap {
	return BrowserKeyMap{
		Open: key.NewBinding(
			key.WithKeys("enter", "l", "right"),
			key.WithHelp("l/enter", "open directory"),
		),
		Parent: key.NewBinding(
			key.WithKeys("h", "left", "backspace"),
			key.WithHelp("h/←", "parent directory"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "mark file"),
		),
		ToggleHidden: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "toggle hidden files"),
		),
	}
}

// InputModalKeyMap defines key bindings for the input modal
type InputModalKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

// DefaultInputModalKeyMap returns the default input modal key bindings
func DefaultInputModalKeyMap() InputModalKeyMap {
	return InputModalKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Package-level key map instances
var (
	ListKeys       = DefaultListKeyMap()
	BrowserKeys    = DefaultBrowserKeyMap()
	InputModalKeys = DefaultInputModalKeyMap()
)
