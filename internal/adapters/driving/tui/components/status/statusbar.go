// Package status provides the status bar for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/keymap"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateAnswering  State = "answering"
	StateResults    State = "results"
	StateError      State = "error"
)

// Bar shows the pipeline state, the serving build and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	count   int
	exact   bool
	build   string
	answers bool
	width   int
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

// View renders the bar across its width.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()
	padding := max(b.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	var parts []string
	switch b.state {
	case StateRetrieving:
		parts = append(parts, b.styles.Muted.Render("Retrieving..."))
	case StateAnswering:
		parts = append(parts, b.styles.Muted.Render("Waiting for the answer model..."))
	case StateError:
		msg := "Error"
		if b.message != "" {
			msg = "Error: " + b.message
		}
		return b.styles.Error.Render(msg)
	case StateResults:
		label := fmt.Sprintf("%d passages", b.count)
		if !b.exact {
			label += " (approximate)"
		}
		parts = append(parts, b.styles.Normal.Render(label))
	default:
		parts = append(parts, b.styles.Muted.Render("Ready"))
	}
	if b.message != "" && b.state != StateError {
		parts = append(parts, b.styles.Success.Render(b.message))
	}
	if b.build != "" {
		parts = append(parts, b.styles.Muted.Render("build "+b.build))
	} else {
		parts = append(parts, b.styles.Warning.Render("no build"))
	}
	return strings.Join(parts, "  ")
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	if b.state == StateResults && b.count > 0 {
		bindings = b.keymap.ResultsHelp(b.answers)
	} else {
		bindings = b.keymap.FormHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state and clears any message.
func (b *Bar) SetState(state State) {
	b.state = state
	b.message = ""
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetError switches to the error state with a message.
func (b *Bar) SetError(err error) {
	b.state = StateError
	b.message = err.Error()
}

// SetMessage shows a transient note next to the state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetResults records the size and exactness of the last retrieval.
func (b *Bar) SetResults(count int, exact bool) {
	b.state = StateResults
	b.message = ""
	b.count = count
	b.exact = exact
}

// SetBuild records the serving build id. Empty means nothing is loaded.
func (b *Bar) SetBuild(id string) {
	b.build = id
}

// SetAnswers controls whether the answer hint is shown.
func (b *Bar) SetAnswers(available bool) {
	b.answers = available
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}
