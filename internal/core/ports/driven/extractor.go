package driven

import (
	"context"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// Extractor pulls per-page text out of a document file.
// Each extractor handles specific file extensions (e.g., .pdf, .txt).
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// SupportedExtensions returns the lower-case extensions handled, with the dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Extract returns the document's pages in order.
	// A page without text is returned with an empty Text.
	Extract(ctx context.Context, path string) ([]domain.Page, error)
}

// ExtractorRegistry selects the appropriate extractor for a file.
type ExtractorRegistry interface {
	// Extract reads pages using the highest-priority extractor for the file's extension.
	// Returns ErrUnsupportedFormat if none matches.
	Extract(ctx context.Context, path string) ([]domain.Page, error)

	// Register adds an extractor to the registry.
	Register(extractor Extractor)

	// SupportedExtensions returns all extensions that can be extracted.
	SupportedExtensions() []string
}

// TextNormaliser cleans extracted page text.
type TextNormaliser interface {
	// Normalise returns one cleaned page per input page, numbers preserved.
	// Pages that end up empty keep an empty Text.
	Normalise(pages []domain.Page) []domain.Page
}

// CorpusLoader discovers the documents of a corpus.
type CorpusLoader interface {
	// Discover lists documents under root with provenance filled in.
	// Pages are left empty; extraction happens later.
	Discover(ctx context.Context, root string) ([]domain.Document, error)
}
