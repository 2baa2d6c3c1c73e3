package domain

import "errors"

// Domain errors represent pipeline failures callers are expected to branch on.
// Infrastructure errors are wrapped around these with fmt.Errorf("...: %w").
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no extractor handles a file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoText indicates a document yielded no extractable text.
	// Ingestion skips such documents; it never fails a build.
	ErrNoText = errors.New("no extractable text")

	// ErrEmbeddingUnavailable indicates the embedding backend failed or is not configured.
	// Queries that hit this error must be reported as "backend unavailable",
	// never as "no matching content".
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the answer model failed or is not configured.
	ErrLLMUnavailable = errors.New("llm service unavailable")

	// Index Errors.

	// ErrIndexUnavailable indicates search was attempted before an index was built or loaded.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrIndexNotTrained indicates vectors were added to a quantized index before training.
	ErrIndexNotTrained = errors.New("vector index not trained")

	// ErrIndexAlreadyTrained indicates a second training pass on a quantized index.
	ErrIndexAlreadyTrained = errors.New("vector index already trained")

	// ErrInsufficientTraining indicates too few training vectors for the configured partitions.
	ErrInsufficientTraining = errors.New("insufficient training vectors")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Persistence Errors.

	// ErrPartialArtifact indicates an index blob without its metadata sidecar or vice versa.
	ErrPartialArtifact = errors.New("partial index artifact")

	// ErrCorruptArtifact indicates persisted index and metadata disagree with each other.
	ErrCorruptArtifact = errors.New("corrupt index artifact")
)
