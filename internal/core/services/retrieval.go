package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers queries against an immutable snapshot.
// Readers never lock; a rebuild is published by swapping the pointer.
type RetrievalService struct {
	embedder  *Embedder
	snapshot  atomic.Pointer[driven.Snapshot]
	topK      int
	overfetch int
	metrics   driven.Metrics
}

// NewRetrievalService creates a retrieval service with no snapshot loaded.
// metrics may be nil.
func NewRetrievalService(embedder *Embedder, settings domain.RetrievalSettings, metrics driven.Metrics) *RetrievalService {
	defaults := domain.DefaultAppSettings().Retrieval
	if settings.TopK <= 0 {
		settings.TopK = defaults.TopK
	}
	if settings.Overfetch < 2 {
		settings.Overfetch = defaults.Overfetch
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &RetrievalService{
		embedder:  embedder,
		topK:      settings.TopK,
		overfetch: settings.Overfetch,
		metrics:   metrics,
	}
}

// Swap atomically replaces the serving snapshot. In-flight queries finish
// against the snapshot they started with.
func (s *RetrievalService) Swap(snapshot *driven.Snapshot) {
	old := s.snapshot.Swap(snapshot)
	if snapshot != nil && (old == nil || old.Manifest.ID != snapshot.Manifest.ID) {
		logger.Info("Serving build %s (%s, %d chunks)",
			snapshot.Manifest.ID, snapshot.Manifest.Strategy, snapshot.Metadata.Len())
	}
}

// Reload loads the current build from the store and swaps it in.
func (s *RetrievalService) Reload(ctx context.Context, store driven.ArtifactStore) error {
	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.Swap(snap)
	return nil
}

// Manifest describes the serving snapshot.
func (s *RetrievalService) Manifest() (*domain.BuildManifest, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	m := snap.Manifest
	return &m, nil
}

// Retrieve returns up to k chunks nearest to the query that pass the filter.
func (s *RetrievalService) Retrieve(
	ctx context.Context,
	query string,
	k int,
	filter domain.Filter,
) (result *domain.Retrieval, err error) {
	start := time.Now()
	snap := s.snapshot.Load()

	strategy := domain.IndexStrategy("")
	if snap != nil {
		strategy = snap.Index.Strategy()
	}
	defer func() {
		n := 0
		if result != nil {
			n = len(result.Chunks)
		}
		s.metrics.ObserveRetrieval(strategy, !filter.IsZero(), n, time.Since(start), err)
	}()

	if snap == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = s.topK
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := s.search(snap, vector, k, filter)
	if err != nil {
		return nil, err
	}

	return &domain.Retrieval{
		Chunks:   chunks,
		Exact:    snap.Index.Exact(),
		Strategy: snap.Index.Strategy(),
		BuildID:  snap.Manifest.ID,
	}, nil
}

// search over-fetches when filtering and widens geometrically until k
// survivors are found or the whole index has been fetched.
func (s *RetrievalService) search(
	snap *driven.Snapshot,
	vector []float32,
	k int,
	filter domain.Filter,
) ([]domain.ScoredChunk, error) {
	total := snap.Index.Len()
	if total == 0 {
		return []domain.ScoredChunk{}, nil
	}
	fetch := k
	if !filter.IsZero() {
		fetch = k * s.overfetch
	}

	for {
		fetch = min(fetch, total)
		hits, err := snap.Index.Search(vector, fetch)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}

		out := make([]domain.ScoredChunk, 0, k)
		for _, hit := range hits {
			chunk, ok := snap.Metadata.Get(hit.ID)
			if !ok {
				return nil, fmt.Errorf("%w: index returned id %d with no metadata", domain.ErrCorruptArtifact, hit.ID)
			}
			if !filter.Matches(chunk) {
				continue
			}
			out = append(out, domain.ScoredChunk{Chunk: chunk, Distance: hit.Distance})
			if len(out) == k {
				return out, nil
			}
		}

		if fetch >= total || filter.IsZero() {
			return out, nil
		}
		logger.Debug("Filter kept %d of %d candidates, widening to %d", len(out), fetch, fetch*s.overfetch)
		fetch *= s.overfetch
	}
}
