package main

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Remove       key.Binding
	SortPath     key.Binding
	SortSize     key.Binding
	SortModified key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Remove: key.NewBinding(
			key.WithKeys("enter", "d"),
			key.WithHelp("enter/d", "remove"),
		),
		SortPath: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "sort path"),
		),
		SortSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort size"),
		),
		SortModified: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "sort modified"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Remove, k.SortSize, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Remove}, {k.SortPath, k.SortSize, k.SortModified}, {k.Help, k.Quit}}
}

// action translates a key press into the engine action it stands for.
func (k keyMap) action(msg tea.KeyMsg) (Action, bool) {
	switch {
	case key.Matches(msg, k.Quit):
		return quitAction{}, true
	case key.Matches(msg, k.Up):
		return selectPreviousAction{}, true
	case key.Matches(msg, k.Down):
		return selectNextAction{}, true
	case key.Matches(msg, k.Remove):
		return removeSelectedAction{}, true
	case key.Matches(msg, k.SortPath):
		return sortAction{column: sortByPath}, true
	case key.Matches(msg, k.SortSize):
		return sortAction{column: sortBySize}, true
	case key.Matches(msg, k.SortModified):
		return sortAction{column: sortByLastModified}, true
	}
	return nil, false
}
