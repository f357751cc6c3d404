package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the TUI reacts to.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Copy    key.Binding
	Filter  key.Binding
	Reload  key.Binding
	Bell    key.Binding
	Inbox   key.Binding
	Compose key.Binding
	Help    key.Binding
	Back    key.Binding
	Quit    key.Binding

	// Compose form
	NextField key.Binding
	PrevField key.Binding
	Cycle     key.Binding
	Send      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "open/mark read"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Bell: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "notifications"),
		),
		Inbox: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "inbox"),
		),
		Compose: key.NewBinding(
			key.WithKeys("2", "n"),
			key.WithHelp("2/n", "compose"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "cycle"),
		),
		Send: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "send"),
		),
	}
}

// ShortHelp is the one-line help for the inbox.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Bell, k.Filter, k.Compose, k.Help, k.Quit}
}

// FullHelp is the expanded help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Copy},
		{k.Filter, k.Reload, k.Bell},
		{k.Inbox, k.Compose, k.Help, k.Back, k.Quit},
		{k.NextField, k.PrevField, k.Cycle, k.Send},
	}
}

// bellHelp is shown while the notification dropdown is open.
func (k keyMap) bellHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Back}
}

// composeHelp is shown on the compose tab.
func (k keyMap) composeHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Cycle, k.Send, k.Back}
}
