package mcp

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result   *domain.Retrieval
	manifest *domain.BuildManifest
	err      error

	lastQuery  string
	lastK      int
	lastFilter domain.Filter
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	query string,
	k int,
	filter domain.Filter,
) (*domain.Retrieval, error) {
	m.lastQuery, m.lastK, m.lastFilter = query, k, filter
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.Retrieval{Chunks: []domain.ScoredChunk{}}, nil
	}
	return m.result, nil
}

func (m *mockRetrievalService) Manifest() (*domain.BuildManifest, error) {
	if m.manifest == nil {
		return nil, domain.ErrIndexUnavailable
	}
	return m.manifest, nil
}

func (m *mockRetrievalService) Swap(*driven.Snapshot) {}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	records []domain.BuildRecord
	err     error
}

func (m *mockIndexService) Build(context.Context, string) (*domain.BuildRecord, error) {
	return nil, m.err
}

func (m *mockIndexService) History(_ context.Context, limit int) ([]domain.BuildRecord, error) {
	if len(m.records) > limit {
		return m.records[:limit], m.err
	}
	return m.records, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer    *domain.Answer
	prompt    string
	retrieval *domain.Retrieval
	err       error
	available bool

	lastQuestion string
	lastK        int
	lastFilter   domain.Filter
}

func (m *mockAnswerService) Ask(_ context.Context, question string, k int, filter domain.Filter) (*domain.Answer, error) {
	m.lastQuestion, m.lastK, m.lastFilter = question, k, filter
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockAnswerService) Prompt(
	_ context.Context,
	question string,
	k int,
	filter domain.Filter,
) (string, *domain.Retrieval, error) {
	m.lastQuestion, m.lastK, m.lastFilter = question, k, filter
	if m.err != nil {
		return "", nil, m.err
	}
	if m.retrieval == nil {
		return m.prompt, &domain.Retrieval{}, nil
	}
	return m.prompt, m.retrieval, nil
}

func (m *mockAnswerService) Available() bool { return m.available }
