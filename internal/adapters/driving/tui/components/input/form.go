// Package input provides the query form for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/styles"
	"github.com/swiftvisa/visarag/internal/core/domain"
)

// Form fields, in focus order.
const (
	FieldQuery = iota
	FieldCountry
	FieldVisaType
	fieldCount
)

var labels = [fieldCount]string{"Question", "Country", "Visa type"}

// QueryForm collects a question and an optional country and visa type filter.
type QueryForm struct {
	fields  [fieldCount]textinput.Model
	focus   int
	focused bool
	styles  *styles.Styles
	width   int
}

// NewQueryForm creates a form with the question field focused.
func NewQueryForm(s *styles.Styles) *QueryForm {
	if s == nil {
		s = styles.DefaultStyles()
	}

	f := &QueryForm{styles: s, width: 80, focused: true}
	placeholders := [fieldCount]string{
		"Can I work while on a student visa?",
		"any",
		"any",
	}
	for i := range f.fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 64
		f.fields[i] = ti
	}
	f.fields[FieldQuery].CharLimit = 512
	f.fields[FieldQuery].Focus()
	f.SetWidth(f.width)
	return f
}

// Init starts the cursor blinking.
func (f *QueryForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards the message to the focused field.
func (f *QueryForm) Update(msg tea.Msg) (*QueryForm, tea.Cmd) {
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return f, cmd
}

// View renders the question on its own line and the filters side by side.
func (f *QueryForm) View() string {
	query := f.renderField(FieldQuery)
	filters := lipgloss.JoinHorizontal(lipgloss.Top,
		f.renderField(FieldCountry), "  ", f.renderField(FieldVisaType))
	return lipgloss.JoinVertical(lipgloss.Left, query, filters)
}

func (f *QueryForm) renderField(i int) string {
	box := f.styles.Field
	label := f.styles.Muted.Render(labels[i])
	if f.focused && i == f.focus {
		box = f.styles.FocusedField
		label = f.styles.Title.Render(labels[i])
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, box.Render(f.fields[i].View()))
}

// Next moves focus to the following field, wrapping around.
func (f *QueryForm) Next() tea.Cmd {
	return f.focusField((f.focus + 1) % fieldCount)
}

// Prev moves focus to the preceding field, wrapping around.
func (f *QueryForm) Prev() tea.Cmd {
	return f.focusField((f.focus + fieldCount - 1) % fieldCount)
}

func (f *QueryForm) focusField(i int) tea.Cmd {
	f.fields[f.focus].Blur()
	f.focus = i
	if !f.focused {
		return nil
	}
	return f.fields[f.focus].Focus()
}

// FocusedField returns the index of the field receiving keys.
func (f *QueryForm) FocusedField() int {
	return f.focus
}

// Query returns the trimmed question.
func (f *QueryForm) Query() string {
	return strings.TrimSpace(f.fields[FieldQuery].Value())
}

// Filter returns the country and visa type restriction.
func (f *QueryForm) Filter() domain.Filter {
	return domain.Filter{
		Country:  strings.TrimSpace(f.fields[FieldCountry].Value()),
		VisaType: strings.TrimSpace(f.fields[FieldVisaType].Value()),
	}
}

// SetValue sets one field's content.
func (f *QueryForm) SetValue(field int, value string) {
	if field >= 0 && field < fieldCount {
		f.fields[field].SetValue(value)
	}
}

// Focus gives the form keyboard focus, on the question field.
func (f *QueryForm) Focus() tea.Cmd {
	f.focused = true
	f.fields[f.focus].Blur()
	f.focus = FieldQuery
	return f.fields[FieldQuery].Focus()
}

// Blur removes keyboard focus from the form.
func (f *QueryForm) Blur() {
	f.focused = false
	f.fields[f.focus].Blur()
}

// Focused returns whether the form has keyboard focus.
func (f *QueryForm) Focused() bool {
	return f.focused
}

// SetWidth lays the question across the width and splits it between filters.
func (f *QueryForm) SetWidth(width int) {
	f.width = width
	// Borders and padding take four columns per box.
	f.fields[FieldQuery].Width = max(width-4, 20)
	half := max((width-2)/2-4, 10)
	f.fields[FieldCountry].Width = half
	f.fields[FieldVisaType].Width = half
}

// Width returns the current width.
func (f *QueryForm) Width() int {
	return f.width
}

// ClearQuery empties the question and keeps the filters.
func (f *QueryForm) ClearQuery() {
	f.fields[FieldQuery].Reset()
}

// Reset empties every field.
func (f *QueryForm) Reset() {
	for i := range f.fields {
		f.fields[i].Reset()
	}
}
