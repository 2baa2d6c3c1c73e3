package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query    string `json:"query" jsonschema:"the question to find visa policy passages for"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages to return (default from settings)"`
	Country  string `json:"country,omitempty" jsonschema:"only return passages for this country"`
	VisaType string `json:"visa_type,omitempty" jsonschema:"only return passages for this visa type"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Chunks   []ChunkOutput `json:"chunks"`
	Count    int           `json:"count"`
	Exact    bool          `json:"exact"`
	Strategy string        `json:"strategy"`
	BuildID  string        `json:"build_id"`
}

// ChunkOutput is one retrieved passage with its provenance.
type ChunkOutput struct {
	ChunkID        int     `json:"chunk_id"`
	SourceDocument string  `json:"source_document"`
	Pages          []int   `json:"pages"`
	Country        string  `json:"country"`
	VisaType       string  `json:"visa_type"`
	Text           string  `json:"text"`
	Distance       float32 `json:"distance"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the eligibility question to answer"`
	K        int    `json:"k,omitempty" jsonschema:"number of passages to ground on (default from settings)"`
	Country  string `json:"country,omitempty" jsonschema:"only use passages for this country"`
	VisaType string `json:"visa_type,omitempty" jsonschema:"only use passages for this visa type"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string        `json:"answer"`
	Model   string        `json:"model"`
	BuildID string        `json:"build_id"`
	Sources []ChunkOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
// The ask tool is only offered when an answer model is configured.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "retrieve",
		Description: "Retrieve the visa policy passages most relevant to a question. " +
			"Filter by country or visa type to keep answers on one jurisdiction. " +
			"An empty result means nothing matched; it is not an error.",
	}, s.handleRetrieve)

	if s.ports.Answer != nil && s.ports.Answer.Available() {
		mcp.AddTool(s.server, &mcp.Tool{
			Name: "ask",
			Description: "Answer a visa eligibility question with the server's configured model, " +
				"grounded on retrieved policy passages. Returns the answer and its sources.",
		}, s.handleAsk)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	filter := domain.Filter{Country: input.Country, VisaType: input.VisaType}

	result, err := s.ports.Retrieval.Retrieve(ctx, input.Query, input.K, filter)
	switch {
	case errors.Is(err, domain.ErrIndexUnavailable):
		return nil, RetrieveOutput{}, fmt.Errorf("no index is loaded yet, run 'visarag build' first: %w", err)
	case err != nil:
		return nil, RetrieveOutput{}, err
	}

	return nil, RetrieveOutput{
		Chunks:   chunkOutputs(result.Chunks),
		Count:    len(result.Chunks),
		Exact:    result.Exact,
		Strategy: result.Strategy.String(),
		BuildID:  result.BuildID,
	}, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	filter := domain.Filter{Country: input.Country, VisaType: input.VisaType}

	answer, err := s.ports.Answer.Ask(ctx, input.Question, input.K, filter)
	switch {
	case errors.Is(err, domain.ErrIndexUnavailable):
		return nil, AskOutput{}, fmt.Errorf("no index is loaded yet, run 'visarag build' first: %w", err)
	case err != nil:
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Answer:  answer.Text,
		Model:   answer.Model,
		BuildID: answer.Retrieval.BuildID,
		Sources: chunkOutputs(answer.Retrieval.Chunks),
	}, nil
}

// chunkOutputs converts scored chunks, never returning nil slices.
func chunkOutputs(chunks []domain.ScoredChunk) []ChunkOutput {
	out := make([]ChunkOutput, len(chunks))
	for i, c := range chunks {
		pages := c.Pages
		if pages == nil {
			pages = []int{}
		}
		out[i] = ChunkOutput{
			ChunkID:        c.ID,
			SourceDocument: c.SourceDocument,
			Pages:          pages,
			Country:        c.Country,
			VisaType:       c.VisaType,
			Text:           c.Text,
			Distance:       c.Distance,
		}
	}
	return out
}
