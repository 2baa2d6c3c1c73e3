package driven

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// PostProcessor processes normalised documents into chunks.
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor modifies chunks, it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returned chunks carry Position but not yet a global ID.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
