package driven

import (
	"time"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// Metrics records pipeline instrumentation. Implementations must be safe
// for concurrent use.
type Metrics interface {
	// ObserveRetrieval records one retrieve call.
	ObserveRetrieval(strategy domain.IndexStrategy, filtered bool, results int, elapsed time.Duration, err error)

	// ObserveEmbedding records one backend embedding batch.
	ObserveEmbedding(model string, size int, elapsed time.Duration, err error)

	// ObserveBuild records a completed build.
	ObserveBuild(record domain.BuildRecord)
}
