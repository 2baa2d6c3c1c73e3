// Package vectorindex creates and decodes the vector index strategies.
package vectorindex

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/flat"
	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/hnsw"
	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/ivfpq"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.IndexFactory = (*Factory)(nil)

// Factory builds indexes from index settings.
type Factory struct {
	settings domain.IndexSettings
}

// NewFactory creates a factory. Zero-valued settings fall back to defaults.
func NewFactory(settings domain.IndexSettings) *Factory {
	defaults := domain.DefaultAppSettings().Index
	if settings.AutoFlatThreshold <= 0 {
		settings.AutoFlatThreshold = defaults.AutoFlatThreshold
	}
	if settings.NList <= 0 {
		settings.NList = defaults.NList
	}
	if settings.PQM <= 0 {
		settings.PQM = defaults.PQM
	}
	if settings.NProbe <= 0 {
		settings.NProbe = defaults.NProbe
	}
	if settings.HNSWM <= 1 {
		settings.HNSWM = defaults.HNSWM
	}
	if settings.EfConstruction <= 0 {
		settings.EfConstruction = defaults.EfConstruction
	}
	if settings.EfSearch <= 0 {
		settings.EfSearch = defaults.EfSearch
	}
	return &Factory{settings: settings}
}

// Resolve maps auto to a concrete strategy for the expected corpus.
// Small corpora use exact search. IVF-PQ needs at least NList vectors and a
// dimension divisible by PQM, otherwise the graph index is used.
func (f *Factory) Resolve(strategy domain.IndexStrategy, dimension, expected int) domain.IndexStrategy {
	if strategy != domain.IndexStrategyAuto {
		return strategy
	}
	switch {
	case expected < f.settings.AutoFlatThreshold:
		return domain.IndexStrategyFlat
	case expected < f.settings.NList || dimension%f.settings.PQM != 0:
		return domain.IndexStrategyHNSW
	default:
		return domain.IndexStrategyIVFPQ
	}
}

// New returns an empty index.
func (f *Factory) New(strategy domain.IndexStrategy, dimension, expected int) (driven.VectorIndex, error) {
	resolved := f.Resolve(strategy, dimension, expected)
	if resolved != strategy {
		logger.Debug("Index strategy %s resolved to %s for %d vectors", strategy, resolved, expected)
	}

	switch resolved {
	case domain.IndexStrategyFlat:
		return index(flat.New(dimension))
	case domain.IndexStrategyIVFPQ:
		return index(ivfpq.New(dimension, ivfpq.Config{
			NList:  f.settings.NList,
			M:      f.settings.PQM,
			NProbe: f.settings.NProbe,
			Seed:   f.settings.Seed,
		}))
	case domain.IndexStrategyHNSW:
		return index(hnsw.New(dimension, hnsw.Config{
			M:              f.settings.HNSWM,
			EfConstruction: f.settings.EfConstruction,
			EfSearch:       f.settings.EfSearch,
			Seed:           f.settings.Seed,
		}))
	default:
		return nil, fmt.Errorf("%w: index strategy %q", domain.ErrInvalidInput, strategy)
	}
}

// Decode reconstructs an index body written by Encode.
func (f *Factory) Decode(strategy domain.IndexStrategy, r io.Reader) (driven.VectorIndex, error) {
	switch strategy {
	case domain.IndexStrategyFlat:
		return index(flat.Decode(r))
	case domain.IndexStrategyIVFPQ:
		return index(ivfpq.Decode(r))
	case domain.IndexStrategyHNSW:
		return index(hnsw.Decode(r))
	default:
		return nil, fmt.Errorf("%w: unknown index strategy %q", domain.ErrCorruptArtifact, strategy)
	}
}

// Build creates an index for the strategy and loads vectors into it.
// Quantized indexes are trained on a reproducible sample before any Add.
// An empty corpus yields an empty index of the given dimension.
func (f *Factory) Build(strategy domain.IndexStrategy, dimension int, vectors [][]float32) (driven.VectorIndex, error) {
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	idx, err := f.New(strategy, dimension, len(vectors))
	if err != nil {
		return nil, err
	}

	if t, ok := idx.(driven.Trainer); ok && !t.Trained() {
		sample := Sample(vectors, f.settings.TrainSample, f.settings.Seed)
		logger.Info("Training %s index on %d of %d vectors", idx.Strategy(), len(sample), len(vectors))
		if err := t.Train(sample); err != nil {
			return nil, fmt.Errorf("train index: %w", err)
		}
	}

	if len(vectors) == 0 {
		return idx, nil
	}
	if err := idx.Add(vectors); err != nil {
		return nil, fmt.Errorf("add vectors: %w", err)
	}
	return idx, nil
}

// index converts a constructor result without leaking a typed nil.
func index[T driven.VectorIndex](x T, err error) (driven.VectorIndex, error) {
	if err != nil {
		return nil, err
	}
	return x, nil
}

// Sample returns up to limit vectors chosen reproducibly from seed, in their
// original order. A non-positive limit returns all vectors.
func Sample(vectors [][]float32, limit int, seed int64) [][]float32 {
	if limit <= 0 || limit >= len(vectors) {
		return vectors
	}
	picked := rand.New(rand.NewSource(seed)).Perm(len(vectors))[:limit]
	keep := make([]bool, len(vectors))
	for _, i := range picked {
		keep[i] = true
	}
	out := make([][]float32, 0, limit)
	for i, v := range vectors {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}
