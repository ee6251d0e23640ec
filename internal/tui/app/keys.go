package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Register   key.Binding
	Unregister key.Binding
	Notify     key.Binding
	Resync     key.Binding
	Help       key.Binding
	Escape     key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Register: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "register observer"),
		),
		Unregister: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unregister observer"),
		),
		Notify: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "push connectivity change"),
		),
		Resync: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "resync snapshot"),
		),
		Help: key.NewBinding(
			key.WithKeys("?", "h"),
			key.WithHelp("?", "toggle help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Bindings lists every binding in display order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Register, k.Unregister, k.Notify, k.Resync, k.Help, k.Escape, k.Quit}
}
