package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Reload  key.Binding
	Filter  key.Binding
	Feed    key.Binding
	Back    key.Binding
	Like    key.Binding
	Author  key.Binding
	Reset   key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "down")),
		Toggle:  key.NewBinding(key.WithKeys("enter", " ", "space"), key.WithHelp("enter", "follow/unfollow")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Feed:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cached feed")),
		Back:    key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Like:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "like")),
		Author:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "follow author")),
		Reset:   key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "clear cache")),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// bindings adapts a fixed list of keys to help.KeyMap.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }

func (k keyMap) followingHelp() bindings {
	return bindings{k.Up, k.Down, k.Toggle, k.Filter, k.Reload, k.Feed, k.Reset, k.Quit}
}

func (k keyMap) feedHelp() bindings {
	return bindings{k.Up, k.Down, k.Like, k.Author, k.Back, k.Quit}
}

func (k keyMap) confirmHelp() bindings {
	return bindings{k.Confirm, k.Cancel}
}
