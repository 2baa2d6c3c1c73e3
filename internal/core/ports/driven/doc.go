// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a build or a query to run:
//
//   - CorpusLoader: Discovers policy documents and their provenance
//   - Extractor / ExtractorRegistry: Pulls per-page text out of files
//   - TextNormaliser: Cleans extracted page text
//   - PostProcessor / PostProcessorPipeline: Turns documents into chunks
//   - EmbeddingService: Maps text to fixed-dimension vectors
//   - VectorIndex / IndexFactory: Stores and searches vectors
//   - ArtifactStore: Persists index and metadata as a pair
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - BuildStore: Build history. Without it, builds are not recorded.
//   - Metrics: Retrieval and build instrumentation.
//   - LLMService: Answer generation. Without it, only retrieval is served.
//   - PromptStore: Editable answer prompts. Without it, built-in prompts apply.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
