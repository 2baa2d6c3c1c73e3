// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Submit runs retrieval for the query form.
	Submit key.Binding

	// NextField and PrevField move focus between query, country and visa type.
	NextField key.Binding
	PrevField key.Binding

	Up   key.Binding
	Down key.Binding

	// Open shows the full text of the selected passage.
	Open key.Binding

	// NewQuery returns focus to the query form.
	NewQuery key.Binding

	// Answer asks the answer model about the current results.
	Answer key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "retrieve"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "read"),
		),
		NewQuery: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new query"),
		),
		Answer: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "answer"),
		),
	}
}

// FormHelp returns the bindings shown while editing the query form.
func (k *KeyMap) FormHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextField, k.Help}
}

// ResultsHelp returns the bindings shown while browsing passages.
// The answer binding is included only when an answer model is available.
func (k *KeyMap) ResultsHelp(answers bool) []key.Binding {
	bindings := []key.Binding{k.Open, k.NewQuery}
	if answers {
		bindings = append(bindings, k.Answer)
	}
	return append(bindings, k.Back, k.Quit)
}

// FullHelp returns the bindings grouped for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NextField, k.PrevField},
		{k.Up, k.Down, k.Open, k.NewQuery, k.Answer},
		{k.Back, k.Help, k.Quit},
	}
}
