package domain

import (
	"fmt"
	"strings"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderLocal is the in-process hashing embedder. It needs no network.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderLocal:
		return "Hashing (in-process, offline)"
	default:
		return unknownDescription
	}
}

// LLMProvider identifies a generative model provider for answers.
// The empty provider means answers are disabled.
type LLMProvider string

// Available LLM providers.
const (
	LLMProviderNone      LLMProvider = ""
	LLMProviderOllama    LLMProvider = "ollama"
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderAnthropic LLMProvider = "anthropic"
)

// IsValid returns true if the provider is recognised. None is valid.
func (p LLMProvider) IsValid() bool {
	switch p {
	case LLMProviderNone, LLMProviderOllama, LLMProviderOpenAI, LLMProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p LLMProvider) RequiresAPIKey() bool {
	return p == LLMProviderOpenAI || p == LLMProviderAnthropic
}

// String returns the string representation.
func (p LLMProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p LLMProvider) Description() string {
	switch p {
	case LLMProviderNone:
		return "None (retrieval only)"
	case LLMProviderOllama:
		return "Ollama (local)"
	case LLMProviderOpenAI:
		return "OpenAI (cloud)"
	case LLMProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// IndexStrategy selects the vector index structure.
type IndexStrategy string

// Available index strategies.
const (
	// IndexStrategyAuto picks flat or approximate by corpus size.
	IndexStrategyAuto IndexStrategy = "auto"

	// IndexStrategyFlat is exact brute-force search.
	IndexStrategyFlat IndexStrategy = "flat"

	// IndexStrategyIVFPQ is an inverted file over product-quantized residuals.
	IndexStrategyIVFPQ IndexStrategy = "ivfpq"

	// IndexStrategyHNSW is a hierarchical navigable small-world graph.
	IndexStrategyHNSW IndexStrategy = "hnsw"
)

// IsValid returns true if the strategy is recognised.
func (s IndexStrategy) IsValid() bool {
	switch s {
	case IndexStrategyAuto, IndexStrategyFlat, IndexStrategyIVFPQ, IndexStrategyHNSW:
		return true
	default:
		return false
	}
}

// IsExact returns true if searches under this strategy always find the true top-k.
func (s IndexStrategy) IsExact() bool {
	return s == IndexStrategyFlat
}

// String returns the string representation.
func (s IndexStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s IndexStrategy) Description() string {
	switch s {
	case IndexStrategyAuto:
		return "Auto (flat for small corpora, approximate above the threshold)"
	case IndexStrategyFlat:
		return "Flat (exact brute force)"
	case IndexStrategyIVFPQ:
		return "IVF-PQ (approximate, clustered and quantized)"
	case IndexStrategyHNSW:
		return "HNSW (approximate, proximity graph)"
	default:
		return unknownDescription
	}
}

// ChunkMode selects the unit the chunker windows over.
type ChunkMode string

// Available chunk modes.
const (
	// ChunkModeSentence windows over sentences.
	ChunkModeSentence ChunkMode = "sentence"

	// ChunkModeWord windows over whitespace-split words.
	ChunkModeWord ChunkMode = "word"
)

// IsValid returns true if the chunk mode is recognised.
func (m ChunkMode) IsValid() bool {
	return m == ChunkModeSentence || m == ChunkModeWord
}

// ChunkingSettings bounds chunk sizes.
type ChunkingSettings struct {
	// MaxWords is the upper bound on words per chunk.
	// A single sentence longer than this still becomes one chunk.
	MaxWords int

	// StrideWords is the minimum overlap carried into the next chunk.
	StrideWords int

	// Mode is the windowing unit.
	Mode ChunkMode
}

// NormaliseSettings configures text cleaning.
type NormaliseSettings struct {
	// HeaderFooterRatio is the fraction of pages a first or last line
	// must recur on before it is stripped as a running header or footer.
	HeaderFooterRatio float64
}

// IngestSettings configures document processing.
type IngestSettings struct {
	// Workers is the number of documents processed in parallel.
	Workers int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model dimension. Zero means model default.
	Dimensions int

	// BatchSize is the number of texts per backend call.
	BatchSize int

	// Concurrency is the number of batches in flight.
	Concurrency int

	// RequestsPerSecond paces backend calls. Zero disables pacing.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds the answer model configuration.
type LLMSettings struct {
	// Provider is the LLM service provider. Empty disables answers.
	Provider LLMProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Temperature controls randomness.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if l.Provider == LLMProviderNone || !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Strategy selects the index structure.
	Strategy IndexStrategy

	// AutoFlatThreshold is the chunk count below which auto picks flat.
	AutoFlatThreshold int

	// NList is the number of coarse partitions for IVF-PQ.
	NList int

	// PQM is the number of product-quantizer sub-vectors for IVF-PQ.
	PQM int

	// NProbe is the number of partitions probed per IVF-PQ query.
	NProbe int

	// TrainSample caps the vectors used to train IVF-PQ. Zero uses all.
	TrainSample int

	// HNSWM is the graph out-degree.
	HNSWM int

	// EfConstruction is the candidate list size while building the graph.
	EfConstruction int

	// EfSearch is the candidate list size while searching the graph.
	EfSearch int

	// Seed makes training and graph levels reproducible.
	Seed int64
}

// RetrievalSettings configures the retriever.
type RetrievalSettings struct {
	// TopK is the default number of chunks returned.
	TopK int

	// Overfetch multiplies k when a metadata filter is present.
	Overfetch int
}

// StorageSettings configures persisted builds.
type StorageSettings struct {
	// Retain is the number of builds kept on disk, the current one included.
	Retain int

	// History records builds in the SQLite history database.
	History bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// DataDir is the corpus root laid out as country/visa_type/file.
	DataDir string

	// StoreDir is where index builds are written.
	StoreDir string

	Chunking  ChunkingSettings
	Normalise NormaliseSettings
	Ingest    IngestSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Retrieval RetrievalSettings
	Storage   StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Index parameters follow common FAISS settings for corpora of this size.
// The answer model is left unconfigured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		DataDir: "data",
		Chunking: ChunkingSettings{
			MaxWords:    200,
			StrideWords: 50,
			Mode:        ChunkModeSentence,
		},
		Normalise: NormaliseSettings{HeaderFooterRatio: 0.3},
		Ingest:    IngestSettings{Workers: 4},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderOllama,
			Model:       "nomic-embed-text",
			BatchSize:   32,
			Concurrency: 4,
		},
		LLM: LLMSettings{MaxTokens: 1024, Temperature: 0.2},
		Index: IndexSettings{
			Strategy:          IndexStrategyAuto,
			AutoFlatThreshold: 20000,
			NList:             100,
			PQM:               8,
			NProbe:            8,
			TrainSample:       10000,
			HNSWM:             32,
			EfConstruction:    200,
			EfSearch:          64,
			Seed:              1,
		},
		Retrieval: RetrievalSettings{TopK: 5, Overfetch: 4},
		Storage:   StorageSettings{Retain: 3, History: true},
	}
}

// Validate reports the first invalid setting.
func (s AppSettings) Validate() error {
	var problems []string
	if s.Chunking.MaxWords <= 0 {
		problems = append(problems, "chunking.max_words must be positive")
	}
	if s.Chunking.StrideWords < 0 || s.Chunking.StrideWords >= s.Chunking.MaxWords {
		problems = append(problems, "chunking.stride_words must be in [0, max_words)")
	}
	if !s.Chunking.Mode.IsValid() {
		problems = append(problems, fmt.Sprintf("chunking.mode %q is not recognised", s.Chunking.Mode))
	}
	if s.Normalise.HeaderFooterRatio < 0 || s.Normalise.HeaderFooterRatio > 1 {
		problems = append(problems, "normalise.header_footer_ratio must be in [0, 1]")
	}
	if !s.Embedding.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("embedding.provider %q is not recognised", s.Embedding.Provider))
	}
	if s.Embedding.BatchSize <= 0 {
		problems = append(problems, "embedding.batch_size must be positive")
	}
	if !s.LLM.Provider.IsValid() {
		problems = append(problems, fmt.Sprintf("llm.provider %q is not recognised", s.LLM.Provider))
	}
	if s.LLM.MaxTokens <= 0 {
		problems = append(problems, "llm.max_tokens must be positive")
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		problems = append(problems, "llm.temperature must be in [0, 2]")
	}
	if !s.Index.Strategy.IsValid() {
		problems = append(problems, fmt.Sprintf("index.strategy %q is not recognised", s.Index.Strategy))
	}
	if s.Index.NList <= 0 || s.Index.PQM <= 0 || s.Index.HNSWM <= 1 {
		problems = append(problems, "index.nlist, index.pq_m and index.hnsw_m must be positive")
	}
	if s.Retrieval.TopK <= 0 {
		problems = append(problems, "retrieval.top_k must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderLocal,
	}
}

// AllLLMProviders returns providers that can generate answers.
func AllLLMProviders() []LLMProvider {
	return []LLMProvider{
		LLMProviderOllama,
		LLMProviderOpenAI,
		LLMProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[LLMProvider]string {
	return map[LLMProvider]string{
		LLMProviderOllama:    "llama3.2",
		LLMProviderOpenAI:    "gpt-4o-mini",
		LLMProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// AllIndexStrategies returns all index strategies.
func AllIndexStrategies() []IndexStrategy {
	return []IndexStrategy{
		IndexStrategyAuto,
		IndexStrategyFlat,
		IndexStrategyIVFPQ,
		IndexStrategyHNSW,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "hashing-v1",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// In-process
		"hashing-v1": 384,
	}
}

// EmbeddingDimensionsFor returns the vector size of a known model, ignoring
// an Ollama ":tag" suffix. It returns zero for unknown models.
func EmbeddingDimensionsFor(model string) int {
	dims := EmbeddingDimensions()
	if d, ok := dims[model]; ok {
		return d
	}
	if i := strings.LastIndex(model, ":"); i > 0 && !strings.Contains(model[i:], "/") {
		return dims[model[:i]]
	}
	return 0
}
