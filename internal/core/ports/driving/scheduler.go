package driving

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// Scheduler rebuilds the index in the background.
type Scheduler interface {
	// Start runs builds on triggers and on the configured interval.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the scheduler after any running build.
	Stop() error

	// Status reports rebuild progress.
	Status() domain.RebuildStatus
}
