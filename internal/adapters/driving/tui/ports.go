// Package tui provides an interactive terminal interface for retrieving
// visa policy passages and asking the answer model about them.
package tui

import (
	"errors"

	"github.com/swiftvisa/visarag/internal/core/ports/driving"
)

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("tui: retrieval service is required")

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Retrieval serves queries against the current build. Required.
	Retrieval driving.RetrievalService

	// Answer asks the answer model about retrieved passages. Optional.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
