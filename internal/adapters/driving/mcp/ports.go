package mcp

import (
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the MCP server.
type Ports struct {
	// Retrieval answers queries against the serving build.
	Retrieval driving.RetrievalService

	// Index provides build history. Optional.
	Index driving.IndexService

	// Answer assembles eligibility prompts and, when a model is
	// configured, answers them. Optional.
	Answer driving.AnswerService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
