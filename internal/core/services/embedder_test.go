package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

func TestEmbedder_EmbedAll_PreservesOrder(t *testing.T) {
	svc := newMockEmbeddingService(1)
	svc.delay = time.Millisecond
	metrics := &recordingMetrics{}
	e := NewEmbedder(svc, WithBatchSize(3), WithConcurrency(4), WithEmbedderMetrics(metrics))

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = vec(float32(i))
	}

	out, err := e.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, out, 20)
	for i, v := range out {
		assert.Equal(t, []float32{float32(i)}, v, "vector %d", i)
	}

	assert.Equal(t, int32(7), svc.calls.Load())
	assert.LessOrEqual(t, svc.maxSeen.Load(), int32(4))
	assert.Equal(t, 7, metrics.embeddings)
}

func TestEmbedder_EmbedAll_BatchFailureFailsCall(t *testing.T) {
	svc := newMockEmbeddingService(1)
	svc.failOn = "boom"
	e := NewEmbedder(svc, WithBatchSize(2))

	out, err := e.EmbedAll(context.Background(), []string{vec(1), vec(2), "boom", vec(4)})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, errBackendDown)
	assert.Nil(t, out)
}

func TestEmbedder_EmbedAll_DimensionChecks(t *testing.T) {
	tests := []struct {
		name  string
		dims  int
		texts []string
	}{
		{"declared dimension differs", 3, []string{vec(1, 2)}},
		{"vectors disagree", 0, []string{vec(1, 2), vec(1, 2, 3)}},
		{"empty vector", 0, []string{"v:"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEmbedder(newMockEmbeddingService(tt.dims))
			_, err := e.EmbedAll(context.Background(), tt.texts)
			assert.Error(t, err)
			if tt.name != "empty vector" {
				assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
			}
		})
	}
}

func TestEmbedder_EmbedAll_Empty(t *testing.T) {
	e := NewEmbedder(newMockEmbeddingService(2))

	out, err := e.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedder_NoService(t *testing.T) {
	e := NewEmbedder(nil)

	_, err := e.EmbedQuery(context.Background(), "anything")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, 0, e.Dimension())
	assert.Empty(t, e.Model())
}

func TestEmbedder_Cancelled(t *testing.T) {
	svc := newMockEmbeddingService(1)
	svc.delay = time.Second
	e := NewEmbedder(svc, WithBatchSize(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := e.EmbedAll(ctx, []string{vec(1), vec(2)})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedder_RateLimit(t *testing.T) {
	svc := newMockEmbeddingService(1)
	e := NewEmbedder(svc, WithBatchSize(1), WithRateLimit(50))

	texts := make([]string, 5)
	for i := range texts {
		texts[i] = vec(float32(i))
	}

	start := time.Now()
	_, err := e.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	// burst of 1, so four waits of 20ms each
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestNewEmbedderFromSettings(t *testing.T) {
	svc := newMockEmbeddingService(4)
	e := NewEmbedderFromSettings(svc, domain.EmbeddingSettings{BatchSize: 8, Concurrency: 2}, nil)

	assert.Equal(t, 8, e.batchSize)
	assert.Equal(t, 2, e.concurrency)
	assert.Nil(t, e.limiter)
	assert.Equal(t, 4, e.Dimension())
	assert.Equal(t, "mock-embed", e.Model())

	q, err := e.EmbedQuery(context.Background(), fmt.Sprintf("v:%d,%d,%d,%d", 1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, q)
}
