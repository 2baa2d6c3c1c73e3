package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// AnswerService grounds an answer model on retrieved chunks.
type AnswerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	settings  domain.LLMSettings
}

// NewAnswerService creates an answer service. llm and prompts may be nil.
func NewAnswerService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.LLMSettings,
) *AnswerService {
	return &AnswerService{
		retrieval: retrieval,
		llm:       llm,
		prompts:   prompts,
		settings:  settings,
	}
}

// Available reports whether an answer model is configured.
func (s *AnswerService) Available() bool {
	return s.llm != nil
}

// Prompt retrieves chunks for question and assembles the eligibility prompt.
func (s *AnswerService) Prompt(
	ctx context.Context,
	question string,
	k int,
	filter domain.Filter,
) (string, *domain.Retrieval, error) {
	retrieval, err := s.retrieval.Retrieve(ctx, question, k, filter)
	if err != nil {
		return "", nil, err
	}
	prompt := domain.BuildPrompt(s.load(driven.PromptEligibility), question, retrieval.Chunks)
	return prompt, retrieval, nil
}

// Ask retrieves chunks for question and has the answer model respond.
func (s *AnswerService) Ask(ctx context.Context, question string, k int, filter domain.Filter) (*domain.Answer, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("%w: no answer model configured. Run 'visarag settings set llm.provider <provider>'",
			domain.ErrLLMUnavailable)
	}

	prompt, retrieval, err := s.Prompt(ctx, question, k, filter)
	if err != nil {
		return nil, err
	}
	logger.Debug("Answering with %s over %d chunks (%d prompt bytes)", s.llm.ModelName(), len(retrieval.Chunks), len(prompt))

	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		System:      s.load(driven.PromptSystem),
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	return &domain.Answer{
		Query:     strings.TrimSpace(question),
		Text:      strings.TrimSpace(text),
		Model:     s.llm.ModelName(),
		Retrieval: *retrieval,
	}, nil
}

// load returns the named template, falling back to the built-in one.
func (s *AnswerService) load(name string) string {
	if s.prompts != nil {
		prompt, err := s.prompts.Load(name)
		if err == nil && strings.TrimSpace(prompt) != "" {
			return prompt
		}
		if err != nil {
			logger.Warn("Prompt %q unavailable, using built-in: %v", name, err)
		}
	}
	prompt, _ := driven.DefaultPrompt(name)
	return prompt
}
