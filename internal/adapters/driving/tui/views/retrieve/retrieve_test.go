package retrieve

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/components/input"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/components/status"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/messages"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

type mockRetrieval struct {
	result *domain.Retrieval
	err    error
	query  string
	k      int
	filter domain.Filter
}

func (m *mockRetrieval) Retrieve(_ context.Context, query string, k int, filter domain.Filter) (*domain.Retrieval, error) {
	m.query, m.k, m.filter = query, k, filter
	return m.result, m.err
}

func (m *mockRetrieval) Manifest() (*domain.BuildManifest, error) {
	return nil, domain.ErrIndexUnavailable
}

func (m *mockRetrieval) Swap(*driven.Snapshot) {}

type mockAnswer struct {
	available bool
	answer    *domain.Answer
	err       error
	question  string
	filter    domain.Filter
}

func (m *mockAnswer) Ask(_ context.Context, question string, _ int, filter domain.Filter) (*domain.Answer, error) {
	m.question, m.filter = question, filter
	return m.answer, m.err
}

func (m *mockAnswer) Prompt(context.Context, string, int, domain.Filter) (string, *domain.Retrieval, error) {
	return "", nil, nil
}

func (m *mockAnswer) Available() bool {
	return m.available
}

func retrieval() *domain.Retrieval {
	return &domain.Retrieval{
		Chunks: []domain.ScoredChunk{
			{Chunk: domain.Chunk{ID: 3, SourceDocument: "canada/study/a.pdf", Pages: []int{1}, Country: "canada", VisaType: "study", Text: "Work up to 20 hours."}, Distance: 0.1},
			{Chunk: domain.Chunk{ID: 9, SourceDocument: "canada/study/b.pdf", Pages: []int{4}, Country: "canada", VisaType: "study", Text: "Full time in breaks."}, Distance: 0.3},
		},
		Exact:    false,
		Strategy: domain.IndexStrategyHNSW,
		BuildID:  "0b8a4c1e",
	}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// submit types a query and filters, presses enter and feeds back the result.
func submit(t *testing.T, v *View, query, country string) {
	t.Helper()
	v.Form().SetValue(input.FieldQuery, query)
	v.Form().SetValue(input.FieldCountry, country)
	_, cmd := v.Update(enter)
	require.NotNil(t, cmd)
	assert.True(t, v.Busy())
	v.Update(cmd())
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{}, nil)

	assert.True(t, v.Editing())
	assert.False(t, v.Busy())
	assert.Empty(t, v.Passages())
	assert.NotNil(t, v.Init())
}

func TestView_SubmitRetrieves(t *testing.T) {
	svc := &mockRetrieval{result: retrieval()}
	v := NewView(nil, nil, svc, nil).WithTopK(7)

	submit(t, v, "can I work", "Canada")

	assert.Equal(t, "can I work", svc.query)
	assert.Equal(t, 7, svc.k)
	assert.Equal(t, domain.Filter{Country: "Canada"}, svc.filter)
	assert.False(t, v.Busy())
	assert.False(t, v.Editing())
	assert.Len(t, v.Passages(), 2)
	assert.Equal(t, status.StateResults, v.Status().State())

	out := v.View()
	assert.Contains(t, out, "Passages (2)")
	assert.Contains(t, out, "2 passages (approximate)")
	assert.Contains(t, out, "build 0b8a4c1e")
}

func TestView_BlankQueryDoesNothing(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{}, nil)
	v.Form().SetValue(input.FieldQuery, "   ")

	_, cmd := v.Update(enter)

	assert.Nil(t, cmd)
	assert.False(t, v.Busy())
}

func TestView_EmptyResultKeepsEditing(t *testing.T) {
	svc := &mockRetrieval{result: &domain.Retrieval{Exact: true, BuildID: "b1"}}
	v := NewView(nil, nil, svc, nil)

	submit(t, v, "fees", "narnia")

	assert.True(t, v.Editing())
	assert.Contains(t, v.View(), "No passages")
	assert.NoError(t, v.Err())
}

func TestView_RetrievalError(t *testing.T) {
	svc := &mockRetrieval{err: domain.ErrIndexUnavailable}
	v := NewView(nil, nil, svc, nil)

	submit(t, v, "fees", "")

	require.ErrorIs(t, v.Err(), domain.ErrIndexUnavailable)
	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.View(), "Error:")
	assert.True(t, v.Editing())
}

func TestView_NoRetrievalService(t *testing.T) {
	v := NewView(nil, nil, nil, nil)
	v.Form().SetValue(input.FieldQuery, "fees")

	_, cmd := v.Update(enter)
	require.NotNil(t, cmd)
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), ErrNoRetrievalService)
	assert.False(t, v.Busy())
}

func TestView_KeysIgnoredWhileBusy(t *testing.T) {
	svc := &mockRetrieval{result: retrieval()}
	v := NewView(nil, nil, svc, nil)
	v.Form().SetValue(input.FieldQuery, "fees")
	v.Update(enter)

	_, cmd := v.Update(enter)

	assert.Nil(t, cmd)
	assert.True(t, v.Busy())
}

func TestView_FormNavigation(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{}, nil)

	v.Update(tab)
	assert.Equal(t, input.FieldCountry, v.Form().FocusedField())
	v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, input.FieldQuery, v.Form().FocusedField())

	v.Update(runes("q"))
	assert.Equal(t, "q", v.Form().Query(), "q types into the form instead of quitting")
}

func TestView_ResultNavigationAndOpen(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, nil)
	submit(t, v, "work", "")

	v.Update(runes("j"))
	assert.Equal(t, 1, v.SelectedIndex())
	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	v.Update(runes("j"))

	_, cmd := v.Update(enter)
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.PassageSelected)
	require.True(t, ok)
	assert.Equal(t, 9, msg.Passage.ID)
}

func TestView_NewQueryKeepsFilters(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, nil)
	submit(t, v, "work", "canada")

	v.Update(runes("n"))

	assert.True(t, v.Editing())
	assert.Empty(t, v.Form().Query())
	assert.Equal(t, "canada", v.Form().Filter().Country)
}

func TestView_EscTogglesBetweenFormAndResults(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, nil)

	v.Update(esc)
	assert.True(t, v.Editing(), "nothing to go back to before the first retrieval")

	submit(t, v, "work", "")
	v.Update(esc)
	assert.True(t, v.Editing())
	v.Update(esc)
	assert.False(t, v.Editing())
}

func TestView_QuitAndHelpInResults(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, nil)
	submit(t, v, "work", "")

	_, cmd := v.Update(runes("?"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewHelp}, cmd())

	_, cmd = v.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}

func TestView_Answer(t *testing.T) {
	ans := &mockAnswer{available: true, answer: &domain.Answer{Text: "ELIGIBILITY: Eligible"}}
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, ans).WithContext(context.Background())
	submit(t, v, "can I work", "canada")

	_, cmd := v.Update(runes("a"))
	require.NotNil(t, cmd)
	assert.True(t, v.Busy())
	assert.Equal(t, status.StateAnswering, v.Status().State())

	msg := cmd()
	completed, ok := msg.(messages.AnswerCompleted)
	require.True(t, ok)
	assert.Equal(t, "ELIGIBILITY: Eligible", completed.Answer.Text)
	assert.Equal(t, "can I work", ans.question)
	assert.Equal(t, "canada", ans.filter.Country)

	v.Update(msg)
	assert.False(t, v.Busy())
	assert.Equal(t, status.StateResults, v.Status().State())
}

func TestView_AnswerFailure(t *testing.T) {
	ans := &mockAnswer{available: true, err: domain.ErrLLMUnavailable}
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, ans)
	submit(t, v, "can I work", "")

	_, cmd := v.Update(runes("a"))
	v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrLLMUnavailable)
}

func TestView_AnswerWithoutModel(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{result: retrieval()}, &mockAnswer{})
	submit(t, v, "can I work", "")

	_, cmd := v.Update(runes("a"))

	assert.Nil(t, cmd)
	assert.False(t, v.Busy())
	assert.Equal(t, "no answer model configured", v.Status().Message())
}

func TestView_BuildLoaded(t *testing.T) {
	v := NewView(nil, nil, &mockRetrieval{}, nil)
	v.SetDimensions(120, 30)

	v.Update(messages.BuildLoaded{Manifest: &domain.BuildManifest{ID: "b42"}})
	assert.Contains(t, v.View(), "build b42")

	v.Update(messages.BuildLoaded{Err: errors.New("gone")})
	assert.Contains(t, v.View(), "no build")
}
