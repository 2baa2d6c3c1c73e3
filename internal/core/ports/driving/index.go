package driving

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// IndexService builds and publishes index snapshots.
type IndexService interface {
	// Build ingests the corpus under dataDir and publishes a new build.
	// Documents that cannot be ingested are skipped and listed in the record.
	Build(ctx context.Context, dataDir string) (*domain.BuildRecord, error)

	// History returns recent builds, newest first.
	History(ctx context.Context, limit int) ([]domain.BuildRecord, error)
}
