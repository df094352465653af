// ABOUTME: Key bindings for the dashboard screen
// ABOUTME: Feeds both key matching and the help view

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the dashboard key bindings
type KeyMap struct {
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Close   key.Binding
	Search  key.Binding
	Refresh key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous card")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next card")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous row")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next row")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "top utilized")),
		Close:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Search:  key.NewBinding(key.WithKeys("s", "/"), key.WithHelp("s", "search selected")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Back:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "choose file")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Refresh, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Open, k.Close},
		{k.Up, k.Down, k.Search},
		{k.Refresh, k.Back, k.Help, k.Quit},
	}
}
