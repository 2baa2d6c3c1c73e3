package driving

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// AnswerService answers eligibility questions from retrieved passages.
type AnswerService interface {
	// Ask retrieves up to k chunks for the question and has the answer
	// model respond to them. Returns ErrLLMUnavailable when no model is set.
	Ask(ctx context.Context, question string, k int, filter domain.Filter) (*domain.Answer, error)

	// Prompt retrieves chunks and returns the assembled prompt without
	// calling a model, for callers that bring their own.
	Prompt(ctx context.Context, question string, k int, filter domain.Filter) (string, *domain.Retrieval, error)

	// Available reports whether an answer model is configured.
	Available() bool
}
