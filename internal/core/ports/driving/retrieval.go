package driving

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// RetrievalService answers queries against the serving index snapshot.
type RetrievalService interface {
	// Retrieve returns up to k chunks nearest to the query that satisfy the filter.
	// k <= 0 uses the configured default. An empty result is not an error.
	Retrieve(ctx context.Context, query string, k int, filter domain.Filter) (*domain.Retrieval, error)

	// Manifest describes the serving snapshot.
	// Returns ErrIndexUnavailable if nothing is loaded.
	Manifest() (*domain.BuildManifest, error)

	// Swap atomically replaces the serving snapshot.
	Swap(snapshot *driven.Snapshot)
}
