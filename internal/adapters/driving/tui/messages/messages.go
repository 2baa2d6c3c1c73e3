// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/swiftvisa/visarag/internal/core/domain"
)

// RetrievalCompleted carries the result of one retrieve call.
type RetrievalCompleted struct {
	Query     string
	Filter    domain.Filter
	Retrieval *domain.Retrieval
	Err       error
}

// AnswerCompleted carries the answer model's response.
type AnswerCompleted struct {
	Answer *domain.Answer
	Err    error
}

// PassageSelected asks for a passage to be shown in full.
type PassageSelected struct {
	Passage domain.ScoredChunk
}

// BuildLoaded reports the serving build, at start-up and after hot reloads.
type BuildLoaded struct {
	Manifest *domain.BuildManifest
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewRetrieve is the query form and passage list.
	ViewRetrieve ViewType = iota
	// ViewReader shows a full passage or an answer.
	ViewReader
	// ViewHelp lists the keybindings.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewRetrieve:
		return "retrieve"
	case ViewReader:
		return "reader"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
