package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/logger"
)

// emptyIndexDimension sizes the index of an empty corpus when the embedding
// backend does not declare its vector size.
const emptyIndexDimension = 384

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexConfig holds the build parameters the index service needs.
type IndexConfig struct {
	// Strategy selects the vector index structure.
	Strategy domain.IndexStrategy

	// Workers is the number of documents processed in parallel.
	Workers int

	// Retain is the number of builds kept after publishing. Zero keeps all.
	Retain int
}

// IndexService turns a corpus into a published snapshot.
type IndexService struct {
	loader     driven.CorpusLoader
	extractors driven.ExtractorRegistry
	normaliser driven.TextNormaliser
	pipeline   driven.PostProcessorPipeline
	embedder   *Embedder
	factory    driven.IndexFactory
	artifacts  driven.ArtifactStore
	history    driven.BuildStore
	metrics    driven.Metrics
	cfg        IndexConfig
}

// NewIndexService creates a new index service.
// history and metrics are optional.
func NewIndexService(
	loader driven.CorpusLoader,
	extractors driven.ExtractorRegistry,
	normaliser driven.TextNormaliser,
	pipeline driven.PostProcessorPipeline,
	embedder *Embedder,
	factory driven.IndexFactory,
	artifacts driven.ArtifactStore,
	history driven.BuildStore,
	metrics driven.Metrics,
	cfg IndexConfig,
) *IndexService {
	if cfg.Workers <= 0 {
		cfg.Workers = domain.DefaultAppSettings().Ingest.Workers
	}
	if cfg.Strategy == "" {
		cfg.Strategy = domain.IndexStrategyAuto
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &IndexService{
		loader:     loader,
		extractors: extractors,
		normaliser: normaliser,
		pipeline:   pipeline,
		embedder:   embedder,
		factory:    factory,
		artifacts:  artifacts,
		history:    history,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// docResult is the outcome of ingesting one document.
type docResult struct {
	chunks  []domain.Chunk
	skipped *domain.SkippedDocument
}

// Build ingests the corpus and publishes a new build.
func (s *IndexService) Build(ctx context.Context, dataDir string) (*domain.BuildRecord, error) {
	start := time.Now()

	// 1. Discover documents
	logger.Section("Discover")
	docs, err := s.loader.Discover(ctx, dataDir)
	if err != nil {
		return nil, fmt.Errorf("discover corpus: %w", err)
	}
	logger.Info("Found %d documents under %s", len(docs), dataDir)

	// 2. Extract, normalise and chunk in parallel
	logger.Section("Chunk")
	results, err := s.ingest(ctx, docs)
	if err != nil {
		return nil, err
	}

	// 3. Merge deterministically and assign ids
	chunks, skipped := merge(results)
	logger.Info("Produced %d chunks from %d documents (%d skipped)", len(chunks), len(docs)-len(skipped), len(skipped))

	// 4. Embed
	logger.Section("Embed")
	vectors, err := s.embedder.EmbedAll(ctx, texts(chunks))
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	dimension := s.embedder.Dimension()
	if len(chunks) == 0 && dimension <= 0 {
		logger.Info("Corpus is empty and the embedding size is unknown; publishing a %d-dimension empty index", emptyIndexDimension)
		dimension = emptyIndexDimension
	}

	// 5. Build the vector index
	logger.Section("Index")
	idx, err := s.factory.Build(s.cfg.Strategy, dimension, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	metadata, err := domain.NewMetadataStore(chunks)
	if err != nil {
		return nil, fmt.Errorf("build metadata: %w", err)
	}
	if idx.Len() != metadata.Len() {
		return nil, fmt.Errorf("%w: index holds %d vectors for %d chunks", domain.ErrCorruptArtifact, idx.Len(), metadata.Len())
	}

	// 6. Publish
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	manifest := domain.BuildManifest{
		ID:        uuid.NewString(),
		Strategy:  idx.Strategy(),
		Exact:     idx.Exact(),
		Dimension: idx.Dimension(),
		Chunks:    metadata.Len(),
		Documents: len(docs) - len(skipped),
		Model:     s.embedder.Model(),
		CreatedAt: time.Now().UTC(),
	}
	snap := &driven.Snapshot{Manifest: manifest, Index: idx, Metadata: metadata}
	if err := s.artifacts.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save build: %w", err)
	}

	if s.cfg.Retain > 0 {
		if err := s.artifacts.Prune(ctx, s.cfg.Retain); err != nil {
			logger.Warn("Pruning old builds failed: %v", err)
		}
	}

	// 7. Record history
	record := domain.BuildRecord{
		BuildManifest: manifest,
		Skipped:       skipped,
		Duration:      time.Since(start),
	}
	if s.history != nil {
		if err := s.history.Save(ctx, record); err != nil {
			logger.Warn("Recording build history failed: %v", err)
		}
	}
	s.metrics.ObserveBuild(record)

	return &record, nil
}

// ingest processes documents concurrently. Per-document failures are
// recorded as skipped; only cancellation aborts the whole build.
func (s *IndexService) ingest(ctx context.Context, docs []domain.Document) ([]docResult, error) {
	results := make([]docResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range docs {
		g.Go(func() error {
			chunks, err := s.process(gctx, docs[i])
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("Skipping %s: %v", docs[i].Source, err)
				results[i].skipped = &domain.SkippedDocument{Source: docs[i].Source, Reason: err.Error()}
				return nil
			}
			logger.Debug("Chunked %s into %d chunks", docs[i].Source, len(chunks))
			results[i].chunks = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest documents: %w", err)
	}
	return results, nil
}

func (s *IndexService) process(ctx context.Context, doc domain.Document) ([]domain.Chunk, error) {
	pages, err := s.extractors.Extract(ctx, doc.Path)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	doc.Pages = s.normaliser.Normalise(pages)
	if !hasText(doc.Pages) {
		return nil, domain.ErrNoText
	}

	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}
	return chunks, nil
}

// History returns recent builds, newest first. Without a history store
// the manifests on disk are used.
func (s *IndexService) History(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	if s.history != nil {
		return s.history.List(ctx, limit)
	}

	manifests, err := s.artifacts.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(manifests) > limit {
		manifests = manifests[:limit]
	}
	records := make([]domain.BuildRecord, len(manifests))
	for i, m := range manifests {
		records[i] = domain.BuildRecord{BuildManifest: m}
	}
	return records, nil
}

// merge orders chunks by (source document, position) and assigns dense ids.
func merge(results []docResult) ([]domain.Chunk, []domain.SkippedDocument) {
	var chunks []domain.Chunk
	var skipped []domain.SkippedDocument
	for _, r := range results {
		if r.skipped != nil {
			skipped = append(skipped, *r.skipped)
			continue
		}
		chunks = append(chunks, r.chunks...)
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].SourceDocument != chunks[j].SourceDocument {
			return chunks[i].SourceDocument < chunks[j].SourceDocument
		}
		return chunks[i].Position < chunks[j].Position
	})
	for i := range chunks {
		chunks[i].ID = i
	}
	return chunks, skipped
}

func texts(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func hasText(pages []domain.Page) bool {
	for _, p := range pages {
		if p.Text != "" {
			return true
		}
	}
	return false
}

