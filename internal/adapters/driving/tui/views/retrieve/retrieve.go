// Package retrieve provides the query form and passage list view.
package retrieve

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/components/input"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/components/list"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/components/status"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/keymap"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/messages"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/styles"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
)

// ErrNoRetrievalService is returned when the view has nothing to query.
var ErrNoRetrievalService = errors.New("retrieval service is required")

// View is the main screen: a query form above the retrieved passages.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	form      *input.QueryForm
	list      *list.PassageList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	answer    driving.AnswerService
	ctx       context.Context
	topK      int

	// last is the query and filter the listed passages were retrieved for.
	last      string
	lastFilt  domain.Filter
	lastExact bool

	width   int
	height  int
	err     error
	busy    bool
	editing bool
}

// NewView creates the view. answer may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retrieval driving.RetrievalService,
	answer driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		form:      input.NewQueryForm(s),
		list:      list.NewPassageList(s),
		statusbar: status.NewBar(s, km),
		retrieval: retrieval,
		answer:    answer,
		ctx:       context.Background(),
		width:     80,
		height:    24,
		editing:   true,
	}
	v.statusbar.SetAnswers(v.answersAvailable())
	return v
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets how many passages to retrieve. Zero uses the configured default.
func (v *View) WithTopK(k int) *View {
	v.topK = k
	return v
}

// Init starts the form cursor.
func (v *View) Init() tea.Cmd {
	return v.form.Init()
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.RetrievalCompleted:
		v.handleRetrieval(msg)
		return v, nil

	case messages.AnswerCompleted:
		v.busy = false
		if msg.Err != nil {
			v.setError(msg.Err)
		} else {
			v.statusbar.SetResults(v.list.Count(), v.lastExact)
		}
		return v, nil

	case messages.BuildLoaded:
		if msg.Err != nil || msg.Manifest == nil {
			v.statusbar.SetBuild("")
			return v, nil
		}
		v.statusbar.SetBuild(msg.Manifest.ID)
		return v, nil

	case messages.ErrorOccurred:
		v.busy = false
		v.setError(msg.Err)
		return v, nil
	}

	if v.editing {
		var cmd tea.Cmd
		v.form, cmd = v.form.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.busy {
		return v, nil
	}
	if v.editing {
		return v.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Open):
		if p := v.list.SelectedPassage(); p != nil {
			passage := *p
			return v, func() tea.Msg { return messages.PassageSelected{Passage: passage} }
		}
	case key.Matches(msg, v.keymap.NewQuery):
		v.editing = true
		v.form.ClearQuery()
		return v, v.form.Focus()
	case key.Matches(msg, v.keymap.Back):
		v.editing = true
		return v, v.form.Focus()
	case key.Matches(msg, v.keymap.Answer):
		return v, v.requestAnswer()
	case key.Matches(msg, v.keymap.Help):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	case key.Matches(msg, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

func (v *View) handleFormKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Submit):
		query := v.form.Query()
		if query == "" {
			return v, nil
		}
		v.busy = true
		v.err = nil
		v.statusbar.SetState(status.StateRetrieving)
		return v, v.performRetrieve(query, v.form.Filter())
	case key.Matches(msg, v.keymap.NextField):
		return v, v.form.Next()
	case key.Matches(msg, v.keymap.PrevField):
		return v, v.form.Prev()
	case key.Matches(msg, v.keymap.Back):
		if v.list.Count() > 0 {
			v.editing = false
			v.form.Blur()
			v.statusbar.SetResults(v.list.Count(), v.lastExact)
		}
		return v, nil
	case msg.String() == "?" && v.form.Query() == "":
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	}

	var cmd tea.Cmd
	v.form, cmd = v.form.Update(msg)
	return v, cmd
}

func (v *View) performRetrieve(query string, filter domain.Filter) tea.Cmd {
	svc, ctx, k := v.retrieval, v.ctx, v.topK
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		result, err := svc.Retrieve(ctx, query, k, filter)
		return messages.RetrievalCompleted{Query: query, Filter: filter, Retrieval: result, Err: err}
	}
}

// requestAnswer asks the model about the query the listed passages came from.
func (v *View) requestAnswer() tea.Cmd {
	if !v.answersAvailable() {
		v.statusbar.SetMessage("no answer model configured")
		return nil
	}
	if v.last == "" {
		return nil
	}
	v.busy = true
	v.statusbar.SetState(status.StateAnswering)

	svc, ctx, k, query, filter := v.answer, v.ctx, v.topK, v.last, v.lastFilt
	return func() tea.Msg {
		answer, err := svc.Ask(ctx, query, k, filter)
		return messages.AnswerCompleted{Answer: answer, Err: err}
	}
}

func (v *View) handleRetrieval(msg messages.RetrievalCompleted) {
	v.busy = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.last = msg.Query
	v.lastFilt = msg.Filter
	var chunks []domain.ScoredChunk
	exact := true
	if msg.Retrieval != nil {
		chunks = msg.Retrieval.Chunks
		exact = msg.Retrieval.Exact
		if msg.Retrieval.BuildID != "" {
			v.statusbar.SetBuild(msg.Retrieval.BuildID)
		}
	}
	v.lastExact = exact
	v.list.SetPassages(chunks)
	v.statusbar.SetResults(len(chunks), exact)

	if len(chunks) > 0 {
		v.editing = false
		v.form.Blur()
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetError(err)
}

func (v *View) answersAvailable() bool {
	return v.answer != nil && v.answer.Available()
}

// View renders the form, any error, the passages and the status bar.
func (v *View) View() string {
	sections := []string{
		v.styles.Title.Render("visarag"),
		"",
		v.form.View(),
		"",
	}
	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	if v.last != "" {
		sections = append(sections, v.list.View())
	}
	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.form.SetWidth(width)
	// Title, form boxes, spacing and the status bar take twelve lines.
	v.list.SetDimensions(width, max(height-12, 4))
	v.statusbar.SetWidth(width)
}

// Passages returns the listed passages.
func (v *View) Passages() []domain.ScoredChunk {
	return v.list.Passages()
}

// SelectedIndex returns the index of the selected passage.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Editing returns whether keys go to the query form.
func (v *View) Editing() bool {
	return v.editing
}

// Busy returns whether a retrieve or answer call is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Form returns the query form.
func (v *View) Form() *input.QueryForm {
	return v.form
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}
