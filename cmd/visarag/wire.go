package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/swiftvisa/visarag/internal/adapters/driven/ai"
	"github.com/swiftvisa/visarag/internal/adapters/driven/config/file"
	"github.com/swiftvisa/visarag/internal/adapters/driven/metrics"
	"github.com/swiftvisa/visarag/internal/adapters/driven/storage/artifact"
	"github.com/swiftvisa/visarag/internal/adapters/driven/storage/sqlite"
	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex"
	"github.com/swiftvisa/visarag/internal/adapters/driving/cli"
	"github.com/swiftvisa/visarag/internal/connectors/filesystem"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
	"github.com/swiftvisa/visarag/internal/core/services"
	"github.com/swiftvisa/visarag/internal/logger"
	"github.com/swiftvisa/visarag/internal/normalisers"
	"github.com/swiftvisa/visarag/internal/normalisers/docx"
	"github.com/swiftvisa/visarag/internal/normalisers/html"
	"github.com/swiftvisa/visarag/internal/normalisers/markdown"
	"github.com/swiftvisa/visarag/internal/normalisers/pdf"
	"github.com/swiftvisa/visarag/internal/normalisers/plaintext"
	"github.com/swiftvisa/visarag/internal/normalisers/text"
	"github.com/swiftvisa/visarag/internal/postprocessors"
)

// watchDebounce collapses bursts of corpus edits into one rebuild.
const watchDebounce = 2 * time.Second

// wire builds the CLI dependencies from the stored settings.
// The returned cleanup releases open stores.
func wire(configStore driven.ConfigStore) (*cli.Dependencies, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Cleanup: %v", err)
			}
		}
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	// Settings commands must keep working while the provider is misconfigured,
	// so a failure here only surfaces when something embeds.
	embedding, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("Embedding provider unavailable: %v", err)
	} else {
		closers = append(closers, embedding.Close)
	}

	m := metrics.New()
	embedder := services.NewEmbedderFromSettings(embedding, settings.Embedding, m)
	factory := vectorindex.NewFactory(settings.Index)

	storeDir, err := resolveStoreDir(settings.StoreDir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	artifacts, err := artifact.NewStore(storeDir, factory)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("opening index store: %w", err)
	}

	var history driven.BuildStore
	if settings.Storage.History {
		store, err := sqlite.NewStore(storeDir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening build history: %w", err)
		}
		closers = append(closers, store.Close)
		history = store.BuildStore()
	}

	extractors := normalisers.NewRegistry(
		pdf.New(),
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
	)
	loader := filesystem.New(extractors.SupportedExtensions())
	normaliser := text.New(text.WithHeaderFooterRatio(settings.Normalise.HeaderFooterRatio))

	processors := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processors)
	chunker, err := processors.Build("chunker", postprocessors.ChunkerConfig(settings.Chunking))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("configuring chunker: %w", err)
	}
	pipeline := postprocessors.NewPipeline(chunker)

	indexService := services.NewIndexService(
		loader, extractors, normaliser, pipeline, embedder, factory, artifacts, history, m,
		services.IndexConfig{
			Strategy: settings.Index.Strategy,
			Workers:  settings.Ingest.Workers,
			Retain:   settings.Storage.Retain,
		},
	)
	retrievalService := services.NewRetrievalService(embedder, settings.Retrieval, m)

	// The answer model is optional; retrieval works without it.
	var llm driven.LLMService
	if settings.LLM.IsConfigured() {
		svc, err := ai.CreateLLMService(&settings.LLM)
		if err != nil {
			logger.Warn("Answer model unavailable: %v", err)
		} else {
			closers = append(closers, svc.Close)
			llm = svc
		}
	}
	prompts, err := file.NewPromptStore(promptDir(configStore))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("opening prompt store: %w", err)
	}
	answerService := services.NewAnswerService(retrievalService, llm, prompts, settings.LLM)

	deps := &cli.Dependencies{
		Settings:  settingsService,
		Index:     indexService,
		Retrieval: retrievalService,
		Answer:    answerService,
		LoadCurrent: func(ctx context.Context) error {
			return retrievalService.Reload(ctx, artifacts)
		},
		WatchCorpus: func(ctx context.Context, root string) (<-chan struct{}, error) {
			return loader.Watch(ctx, root, watchDebounce)
		},
		WatchBuilds: func(ctx context.Context, onChange func(id string)) error {
			watcher, err := artifact.NewWatcher(artifacts)
			if err != nil {
				return err
			}
			watcher.OnChange(onChange)
			watcher.Start(ctx)
			return nil
		},
		NewScheduler: func(opts cli.SchedulerOptions) driving.Scheduler {
			return services.NewScheduler(services.SchedulerConfig{
				DataDir:    opts.DataDir,
				Interval:   opts.Interval,
				Triggers:   opts.Triggers,
				RunAtStart: opts.RunAtStart,
				OnBuilt: func(record *domain.BuildRecord) {
					if opts.OnBuilt != nil {
						opts.OnBuilt(record)
					}
				},
			}, indexService)
		},
		MetricsHandler: m.Handler(),
	}
	return deps, cleanup, nil
}

// promptDir keeps prompt templates beside an on-disk config file.
// Empty selects ~/.visarag/prompts.
func promptDir(configStore driven.ConfigStore) string {
	path := configStore.Path()
	if !filepath.IsAbs(path) {
		return ""
	}
	return filepath.Join(filepath.Dir(path), "prompts")
}

// resolveStoreDir defaults the index store to ~/.visarag/store.
func resolveStoreDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".visarag", "store"), nil
}
