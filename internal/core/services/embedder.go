package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Embedder fans text out to an embedding backend in ordered batches.
type Embedder struct {
	service     driven.EmbeddingService
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
	metrics     driven.Metrics
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithBatchSize sets the number of texts per backend call.
func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithConcurrency sets the number of batches in flight.
func WithConcurrency(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRateLimit paces backend calls. Zero or less disables pacing.
func WithRateLimit(perSecond float64) EmbedderOption {
	return func(e *Embedder) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithEmbedderMetrics records each batch call.
func WithEmbedderMetrics(m driven.Metrics) EmbedderOption {
	return func(e *Embedder) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEmbedder wraps an embedding service.
func NewEmbedder(service driven.EmbeddingService, opts ...EmbedderOption) *Embedder {
	defaults := domain.DefaultAppSettings().Embedding
	e := &Embedder{
		service:     service,
		batchSize:   defaults.BatchSize,
		concurrency: defaults.Concurrency,
		metrics:     nopMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEmbedderFromSettings builds an Embedder with batching and pacing from settings.
func NewEmbedderFromSettings(service driven.EmbeddingService, s domain.EmbeddingSettings, m driven.Metrics) *Embedder {
	return NewEmbedder(service,
		WithBatchSize(s.BatchSize),
		WithConcurrency(s.Concurrency),
		WithRateLimit(s.RequestsPerSecond),
		WithEmbedderMetrics(m),
	)
}

// Model returns the backend model name.
func (e *Embedder) Model() string {
	if e.service == nil {
		return ""
	}
	return e.service.ModelName()
}

// Dimension returns the backend's declared vector size, zero if unknown.
func (e *Embedder) Dimension() int {
	if e.service == nil {
		return 0
	}
	return e.service.Dimensions()
}

// EmbedAll embeds texts and returns one vector per text in input order.
// Any failed batch fails the whole call with ErrEmbeddingUnavailable.
// All vectors share one dimension, equal to the backend's declared
// dimension when it declares one.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	batches := (len(texts) + e.batchSize - 1) / e.batchSize
	logger.Debug("Embedding %d texts in %d batches of up to %d", len(texts), batches, e.batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for b := 0; b < batches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(texts))
		g.Go(func() error {
			vectors, err := e.batch(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("batch %d: %w", b, err)
			}
			copy(out[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if err := e.checkDimensions(out); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a single query text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedAll(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) batch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	vectors, err := e.service.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) != len(texts) {
		err = fmt.Errorf("backend returned %d vectors for %d texts", len(vectors), len(texts))
	}
	e.metrics.ObserveEmbedding(e.service.ModelName(), len(texts), time.Since(start), err)
	return vectors, err
}

func (e *Embedder) checkDimensions(vectors [][]float32) error {
	want := e.service.Dimensions()
	if want <= 0 {
		want = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != want || want == 0 {
			return fmt.Errorf("%w: vector %d has length %d, want %d", domain.ErrDimensionMismatch, i, len(v), want)
		}
	}
	return nil
}
