package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the monitor.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	play       key.Binding
	stopMusic  key.Binding
	stopAll    key.Binding
	volumeUp   key.Binding
	volumeDown key.Binding
	toggle     key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		play:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
		stopMusic:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop music")),
		stopAll:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop all")),
		volumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "master up")),
		volumeDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "master down")),
		toggle:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "clips/sessions")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.toggle, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.play},
		{k.stopMusic, k.stopAll},
		{k.volumeUp, k.volumeDown},
		{k.toggle, k.quit},
	}
}
