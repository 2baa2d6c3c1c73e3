// Package domain defines the core entities of the visa-policy retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document and Page: extracted policy text with provenance
//   - Chunk: the unit of retrieval, index-aligned with its vector
//   - MetadataStore: chunk provenance keyed by dense chunk id
//   - Filter, Hit, ScoredChunk: retrieval inputs and outputs
//   - BuildManifest: identity of one persisted index build
//   - Answer: a generated response and the chunks it was grounded on
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
