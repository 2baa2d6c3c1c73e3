package mcp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// registerPrompts registers the eligibility prompt when an answer
// service is available. The client's own model answers it.
func (s *Server) registerPrompts() {
	if s.ports.Answer == nil {
		return
	}
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "eligibility",
		Description: "Assess visa eligibility for a question, grounded on retrieved policy passages.",
		Arguments: []*mcp.PromptArgument{
			{Name: "question", Description: "the applicant's question", Required: true},
			{Name: "country", Description: "only use passages for this country"},
			{Name: "visa_type", Description: "only use passages for this visa type"},
			{Name: "k", Description: "number of passages to include"},
		},
	}, s.handleEligibilityPrompt)
}

// handleEligibilityPrompt retrieves passages and returns the assembled prompt.
func (s *Server) handleEligibilityPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	question := strings.TrimSpace(args["question"])
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	k := 0
	if raw := strings.TrimSpace(args["k"]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: k must be a number", domain.ErrInvalidInput)
		}
		k = n
	}

	filter := domain.Filter{Country: args["country"], VisaType: args["visa_type"]}
	prompt, retrieval, err := s.ports.Answer.Prompt(ctx, question, k, filter)
	switch {
	case errors.Is(err, domain.ErrIndexUnavailable):
		return nil, fmt.Errorf("no index is loaded yet, run 'visarag build' first: %w", err)
	case err != nil:
		return nil, err
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Eligibility assessment over %d passages from build %s",
			len(retrieval.Chunks), retrieval.BuildID),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: prompt}},
		},
	}, nil
}
