package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// --- Mock implementations for service testing ---

var errBackendDown = errors.New("backend down")

// mockEmbeddingService maps texts of the form "v:x,y,..." to the vector
// [x, y, ...]; any other text maps to a vector derived from its length.
type mockEmbeddingService struct {
	dims     int
	delay    time.Duration
	failOn   string
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newMockEmbeddingService(dims int) *mockEmbeddingService {
	return &mockEmbeddingService{dims: dims}
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if m.failOn != "" && strings.Contains(t, m.failOn) {
			return nil, errBackendDown
		}
		v, err := m.vector(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) vector(text string) ([]float32, error) {
	if rest, ok := strings.CutPrefix(text, "v:"); ok {
		parts := strings.Split(rest, ",")
		v := make([]float32, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(p, 32)
			if err != nil {
				return nil, fmt.Errorf("bad mock vector %q: %w", text, err)
			}
			v[i] = float32(f)
		}
		return v, nil
	}
	v := make([]float32, m.dims)
	for i := range v {
		v[i] = float32(len(text) % (i + 7))
	}
	return v, nil
}

func (m *mockEmbeddingService) Dimensions() int            { return m.dims }
func (m *mockEmbeddingService) ModelName() string          { return "mock-embed" }
func (m *mockEmbeddingService) Ping(context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error               { return nil }

// recordingMetrics counts observations.
type recordingMetrics struct {
	mu         sync.Mutex
	retrievals []error
	embeddings int
	builds     []domain.BuildRecord
}

func (r *recordingMetrics) ObserveRetrieval(_ domain.IndexStrategy, _ bool, _ int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrievals = append(r.retrievals, err)
}

func (r *recordingMetrics) ObserveEmbedding(string, int, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embeddings++
}

func (r *recordingMetrics) ObserveBuild(record domain.BuildRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds = append(r.builds, record)
}

var _ driven.Metrics = (*recordingMetrics)(nil)

// mockIndexService implements driving.IndexService for scheduler tests.
type mockIndexService struct {
	mu     sync.Mutex
	builds int
	err    error
}

func (m *mockIndexService) Build(context.Context, string) (*domain.BuildRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.builds++
	return &domain.BuildRecord{BuildManifest: domain.BuildManifest{ID: fmt.Sprintf("build-%d", m.builds)}}, nil
}

func (m *mockIndexService) History(context.Context, int) ([]domain.BuildRecord, error) {
	return nil, nil
}

func (m *mockIndexService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds
}

// vec formats a vector as mock embedding input.
func vec(values ...float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "v:" + strings.Join(parts, ",")
}
