package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBar(t *testing.T) {
	b := NewBar(nil, nil)

	assert.Equal(t, StateReady, b.State())
	view := b.View()
	assert.Contains(t, view, "Ready")
	assert.Contains(t, view, "no build")
	assert.Contains(t, view, "enter: retrieve")
}

func TestBar_Results(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(160)
	b.SetBuild("0b8a4c1e")

	b.SetResults(5, false)
	view := b.View()

	assert.Equal(t, StateResults, b.State())
	assert.Contains(t, view, "5 passages (approximate)")
	assert.Contains(t, view, "build 0b8a4c1e")
	assert.Contains(t, view, "n: new query")
	assert.NotContains(t, view, "a: answer")

	b.SetAnswers(true)
	b.SetResults(5, true)
	view = b.View()
	assert.NotContains(t, view, "approximate")
	assert.Contains(t, view, "a: answer")
}

func TestBar_NoResultsShowsFormHints(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(160)

	b.SetResults(0, true)

	assert.Contains(t, b.View(), "tab: next field")
}

func TestBar_Error(t *testing.T) {
	b := NewBar(nil, nil)

	b.SetError(errors.New("index unavailable"))

	assert.Equal(t, StateError, b.State())
	assert.Equal(t, "index unavailable", b.Message())
	assert.Contains(t, b.View(), "Error: index unavailable")

	b.SetState(StateRetrieving)
	assert.Empty(t, b.Message())
	assert.Contains(t, b.View(), "Retrieving...")
}

func TestBar_Message(t *testing.T) {
	b := NewBar(nil, nil)
	b.SetWidth(160)
	b.SetResults(2, true)

	b.SetMessage("build reloaded")

	assert.Contains(t, b.View(), "build reloaded")
}
