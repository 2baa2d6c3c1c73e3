package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/swiftvisa/visarag/internal/adapters/driven/storage/memory"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/core/services"
)

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	record  *domain.BuildRecord
	records []domain.BuildRecord
	err     error

	mu      sync.Mutex
	dataDir string
}

func (m *mockIndexService) Build(_ context.Context, dataDir string) (*domain.BuildRecord, error) {
	m.mu.Lock()
	m.dataDir = dataDir
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockIndexService) History(_ context.Context, limit int) ([]domain.BuildRecord, error) {
	if len(m.records) > limit {
		return m.records[:limit], m.err
	}
	return m.records, m.err
}

func (m *mockIndexService) lastDataDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataDir
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result   *domain.Retrieval
	manifest *domain.BuildManifest
	err      error

	lastK      int
	lastFilter domain.Filter
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	k int,
	filter domain.Filter,
) (*domain.Retrieval, error) {
	m.lastK, m.lastFilter = k, filter
	if m.err != nil {
		return nil, m.err
	}
	if m.result == nil {
		return &domain.Retrieval{Chunks: []domain.ScoredChunk{}, Exact: true, Strategy: domain.IndexStrategyFlat}, nil
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

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer    *domain.Answer
	prompt    string
	err       error
	available bool

	lastK      int
	lastFilter domain.Filter
}

func (m *mockAnswerService) Ask(_ context.Context, _ string, k int, filter domain.Filter) (*domain.Answer, error) {
	m.lastK, m.lastFilter = k, filter
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockAnswerService) Prompt(
	_ context.Context,
	_ string,
	k int,
	filter domain.Filter,
) (string, *domain.Retrieval, error) {
	m.lastK, m.lastFilter = k, filter
	if m.err != nil {
		return "", nil, m.err
	}
	return m.prompt, &domain.Retrieval{}, nil
}

func (m *mockAnswerService) Available() bool { return m.available }

// mockScheduler runs OnBuilt once per record and returns.
type mockScheduler struct {
	opts    SchedulerOptions
	records []*domain.BuildRecord
}

func (m *mockScheduler) Start(context.Context) error {
	for _, r := range m.records {
		m.opts.OnBuilt(r)
	}
	return nil
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) Status() domain.RebuildStatus {
	return domain.RebuildStatus{Builds: len(m.records)}
}

var _ driving.Scheduler = (*mockScheduler)(nil)

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings  *services.SettingsService
	index     *mockIndexService
	retrieval *mockRetrievalService
	answer    *mockAnswerService
	loads     int
	loadErr   error
}

// setupTestServices installs mock dependencies and returns them with a cleanup.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		settings:  services.NewSettingsService(memory.NewConfigStore(map[string]any{"data_dir": "/corpus"}), nil),
		index:     &mockIndexService{},
		retrieval: &mockRetrievalService{},
		answer:    &mockAnswerService{},
	}
	previous := deps
	SetDependencies(&Dependencies{
		Settings:  ts.settings,
		Index:     ts.index,
		Retrieval: ts.retrieval,
		Answer:    ts.answer,
		LoadCurrent: func(context.Context) error {
			ts.loads++
			return ts.loadErr
		},
	})
	return ts, func() {
		SetDependencies(previous)
	}
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores flag variables shared across executions.
func resetFlags() {
	verbose = false
	queryK, queryCountry, queryVisaType, queryJSON = 0, "", "", false
	askK, askCountry, askVisaType, askJSON, askPromptOnly = 0, "", "", false, false
	buildWatch, buildInterval = false, 0
	tuiK = 0
	buildsLimit, buildsJSON = 10, false
}

func sampleRecord() *domain.BuildRecord {
	return &domain.BuildRecord{
		BuildManifest: domain.BuildManifest{
			ID:        "0b8a4c1e",
			Strategy:  domain.IndexStrategyFlat,
			Exact:     true,
			Dimension: 768,
			Chunks:    42,
			Documents: 6,
			Model:     "nomic-embed-text",
			CreatedAt: time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC),
		},
		Skipped:  []domain.SkippedDocument{{Source: "us/h1b/scan.pdf", Reason: "no extractable text"}},
		Duration: 1500 * time.Millisecond,
	}
}
