package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyDataDir           = "data_dir"
	keyStoreDir          = "store_dir"
	keyMaxWords          = "chunking.max_words"
	keyStrideWords       = "chunking.stride_words"
	keyChunkMode         = "chunking.mode"
	keyHeaderFooterRatio = "normalise.header_footer_ratio"
	keyWorkers           = "ingest.workers"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDimensions   = "embedding.dimensions"
	keyEmbedBatchSize    = "embedding.batch_size"
	keyEmbedConcurrency  = "embedding.concurrency"
	keyEmbedRPS          = "embedding.requests_per_second"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyLLMTemperature    = "llm.temperature"
	keyIndexStrategy     = "index.strategy"
	keyAutoFlatThreshold = "index.auto_flat_threshold"
	keyNList             = "index.nlist"
	keyPQM               = "index.pq_m"
	keyNProbe            = "index.nprobe"
	keyTrainSample       = "index.train_sample"
	keyHNSWM             = "index.hnsw_m"
	keyEfConstruction    = "index.ef_construction"
	keyEfSearch          = "index.ef_search"
	keySeed              = "index.seed"
	keyTopK              = "retrieval.top_k"
	keyOverfetch         = "retrieval.overfetch"
	keyRetain            = "storage.retain"
	keyHistory           = "storage.history"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
)

// keyKinds lists every settable key and how its value is parsed.
var keyKinds = map[string]valueKind{
	keyDataDir:           kindString,
	keyStoreDir:          kindString,
	keyMaxWords:          kindInt,
	keyStrideWords:       kindInt,
	keyChunkMode:         kindString,
	keyHeaderFooterRatio: kindFloat,
	keyWorkers:           kindInt,
	keyEmbedProvider:     kindString,
	keyEmbedModel:        kindString,
	keyEmbedBaseURL:      kindString,
	keyEmbedAPIKey:       kindString,
	keyEmbedDimensions:   kindInt,
	keyEmbedBatchSize:    kindInt,
	keyEmbedConcurrency:  kindInt,
	keyEmbedRPS:          kindFloat,
	keyLLMProvider:       kindString,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyLLMMaxTokens:      kindInt,
	keyLLMTemperature:    kindFloat,
	keyIndexStrategy:     kindString,
	keyAutoFlatThreshold: kindInt,
	keyNList:             kindInt,
	keyPQM:               kindInt,
	keyNProbe:            kindInt,
	keyTrainSample:       kindInt,
	keyHNSWM:             kindInt,
	keyEfConstruction:    kindInt,
	keyEfSearch:          kindInt,
	keySeed:              kindInt,
	keyTopK:              kindInt,
	keyOverfetch:         kindInt,
	keyRetain:            kindInt,
	keyHistory:           kindBool,
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Missing or unrecognised
// values fall back to defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	provider := s.getProvider(d.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	llmProvider := s.getLLMProvider()
	llmModel := s.configStore.GetString(keyLLMModel)
	if llmModel == "" {
		llmModel = domain.DefaultLLMModels()[llmProvider]
	}

	settings := &domain.AppSettings{
		DataDir:  s.getString(keyDataDir, d.DataDir),
		StoreDir: s.getString(keyStoreDir, d.StoreDir),
		Chunking: domain.ChunkingSettings{
			MaxWords:    s.getInt(keyMaxWords, d.Chunking.MaxWords),
			StrideWords: s.getInt(keyStrideWords, d.Chunking.StrideWords),
			Mode:        s.getChunkMode(d.Chunking.Mode),
		},
		Normalise: domain.NormaliseSettings{
			HeaderFooterRatio: s.getFloat(keyHeaderFooterRatio, d.Normalise.HeaderFooterRatio),
		},
		Ingest: domain.IngestSettings{
			Workers: s.getInt(keyWorkers, d.Ingest.Workers),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // Empty uses the provider default
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.configStore.GetInt(keyEmbedDimensions),
			BatchSize:         s.getInt(keyEmbedBatchSize, d.Embedding.BatchSize),
			Concurrency:       s.getInt(keyEmbedConcurrency, d.Embedding.Concurrency),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       llmModel,
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
		},
		Index: domain.IndexSettings{
			Strategy:          s.getStrategy(d.Index.Strategy),
			AutoFlatThreshold: s.getInt(keyAutoFlatThreshold, d.Index.AutoFlatThreshold),
			NList:             s.getInt(keyNList, d.Index.NList),
			PQM:               s.getInt(keyPQM, d.Index.PQM),
			NProbe:            s.getInt(keyNProbe, d.Index.NProbe),
			TrainSample:       s.getInt(keyTrainSample, d.Index.TrainSample),
			HNSWM:             s.getInt(keyHNSWM, d.Index.HNSWM),
			EfConstruction:    s.getInt(keyEfConstruction, d.Index.EfConstruction),
			EfSearch:          s.getInt(keyEfSearch, d.Index.EfSearch),
			Seed:              int64(s.getInt(keySeed, int(d.Index.Seed))),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:      s.getInt(keyTopK, d.Retrieval.TopK),
			Overfetch: s.getInt(keyOverfetch, d.Retrieval.Overfetch),
		},
		Storage: domain.StorageSettings{
			Retain:  s.getInt(keyRetain, d.Storage.Retain),
			History: s.getBool(keyHistory, d.Storage.History),
		},
	}

	// API keys may come from the environment instead of the file.
	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = envAPIKey()
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = envLLMAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	for _, v := range flatten(settings) {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Only persist explicit API keys; environment keys stay in the environment.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != envAPIKey() {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != envLLMAPIKey(settings.LLM.Provider) {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// setting is one configuration key and its typed value.
type setting struct {
	key   string
	value any
}

// flatten lists every persisted key of settings. API keys are left out.
func flatten(settings *domain.AppSettings) []setting {
	return []setting{
		{keyDataDir, settings.DataDir},
		{keyStoreDir, settings.StoreDir},
		{keyMaxWords, settings.Chunking.MaxWords},
		{keyStrideWords, settings.Chunking.StrideWords},
		{keyChunkMode, string(settings.Chunking.Mode)},
		{keyHeaderFooterRatio, settings.Normalise.HeaderFooterRatio},
		{keyWorkers, settings.Ingest.Workers},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedBatchSize, settings.Embedding.BatchSize},
		{keyEmbedConcurrency, settings.Embedding.Concurrency},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyIndexStrategy, settings.Index.Strategy.String()},
		{keyAutoFlatThreshold, settings.Index.AutoFlatThreshold},
		{keyNList, settings.Index.NList},
		{keyPQM, settings.Index.PQM},
		{keyNProbe, settings.Index.NProbe},
		{keyTrainSample, settings.Index.TrainSample},
		{keyHNSWM, settings.Index.HNSWM},
		{keyEfConstruction, settings.Index.EfConstruction},
		{keyEfSearch, settings.Index.EfSearch},
		{keySeed, int(settings.Index.Seed)},
		{keyTopK, settings.Retrieval.TopK},
		{keyOverfetch, settings.Retrieval.Overfetch},
		{keyRetain, settings.Storage.Retain},
		{keyHistory, settings.Storage.History},
	}
}

// Keys returns every configuration key, sorted.
func (s *SettingsService) Keys() []string {
	return Keys()
}

// Value returns the effective value of key, defaults applied, as a string.
func (s *SettingsService) Value(key string) (string, error) {
	if _, ok := keyKinds[key]; !ok {
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	settings, err := s.Get()
	if err != nil {
		return "", err
	}
	switch key {
	case keyEmbedAPIKey:
		return settings.Embedding.APIKey, nil
	case keyLLMAPIKey:
		return settings.LLM.APIKey, nil
	}
	for _, v := range flatten(settings) {
		if v.key == key {
			return fmt.Sprint(v.value), nil
		}
	}
	return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
}

// Set parses value for key and stores it if the resulting settings are valid.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseValue(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := apply(settings, key, parsed); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// apply writes a parsed value into the matching settings field.
//
//nolint:gocyclo // One case per configuration key
func apply(settings *domain.AppSettings, key string, value any) error {
	str, _ := value.(string)
	num, _ := value.(int)
	switch key {
	case keyDataDir:
		settings.DataDir = str
	case keyStoreDir:
		settings.StoreDir = str
	case keyMaxWords:
		settings.Chunking.MaxWords = num
	case keyStrideWords:
		settings.Chunking.StrideWords = num
	case keyChunkMode:
		settings.Chunking.Mode = domain.ChunkMode(str)
	case keyHeaderFooterRatio:
		settings.Normalise.HeaderFooterRatio = value.(float64)
	case keyWorkers:
		settings.Ingest.Workers = num
	case keyEmbedProvider:
		settings.Embedding.Provider = domain.AIProvider(str)
	case keyEmbedModel:
		settings.Embedding.Model = str
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = str
	case keyEmbedAPIKey:
		settings.Embedding.APIKey = str
	case keyEmbedDimensions:
		settings.Embedding.Dimensions = num
	case keyEmbedBatchSize:
		settings.Embedding.BatchSize = num
	case keyEmbedConcurrency:
		settings.Embedding.Concurrency = num
	case keyEmbedRPS:
		settings.Embedding.RequestsPerSecond = value.(float64)
	case keyLLMProvider:
		settings.LLM.Provider = domain.LLMProvider(str)
	case keyLLMModel:
		settings.LLM.Model = str
	case keyLLMBaseURL:
		settings.LLM.BaseURL = str
	case keyLLMAPIKey:
		settings.LLM.APIKey = str
	case keyLLMMaxTokens:
		settings.LLM.MaxTokens = num
	case keyLLMTemperature:
		settings.LLM.Temperature = value.(float64)
	case keyIndexStrategy:
		settings.Index.Strategy = domain.IndexStrategy(str)
	case keyAutoFlatThreshold:
		settings.Index.AutoFlatThreshold = num
	case keyNList:
		settings.Index.NList = num
	case keyPQM:
		settings.Index.PQM = num
	case keyNProbe:
		settings.Index.NProbe = num
	case keyTrainSample:
		settings.Index.TrainSample = num
	case keyHNSWM:
		settings.Index.HNSWM = num
	case keyEfConstruction:
		settings.Index.EfConstruction = num
	case keyEfSearch:
		settings.Index.EfSearch = num
	case keySeed:
		settings.Index.Seed = int64(num)
	case keyTopK:
		settings.Retrieval.TopK = num
	case keyOverfetch:
		settings.Retrieval.Overfetch = num
	case keyRetain:
		settings.Storage.Retain = num
	case keyHistory:
		settings.Storage.History = value.(bool)
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return nil
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if s.configStore.GetString(keyEmbedProvider) != "" && !domain.AIProvider(s.configStore.GetString(keyEmbedProvider)).IsValid() {
		return fmt.Errorf("%w: embedding.provider %q is not recognised", domain.ErrInvalidInput, s.configStore.GetString(keyEmbedProvider))
	}
	if !domain.LLMProvider(s.configStore.GetString(keyLLMProvider)).IsValid() {
		return fmt.Errorf("%w: llm.provider %q is not recognised", domain.ErrInvalidInput, s.configStore.GetString(keyLLMProvider))
	}
	if s.configStore.GetString(keyIndexStrategy) != "" && !domain.IndexStrategy(s.configStore.GetString(keyIndexStrategy)).IsValid() {
		return fmt.Errorf("%w: index.strategy %q is not recognised", domain.ErrInvalidInput, s.configStore.GetString(keyIndexStrategy))
	}
	if s.configStore.GetString(keyChunkMode) != "" && !domain.ChunkMode(s.configStore.GetString(keyChunkMode)).IsValid() {
		return fmt.Errorf("%w: chunking.mode %q is not recognised", domain.ErrInvalidInput, s.configStore.GetString(keyChunkMode))
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current answer model configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// envAPIKey returns the OpenAI key from the environment, if any.
func envAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// envLLMAPIKey returns the environment key for an answer model provider.
func envLLMAPIKey(provider domain.LLMProvider) string {
	switch provider {
	case domain.LLMProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.LLMProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getLLMProvider() domain.LLMProvider {
	provider := domain.LLMProvider(s.configStore.GetString(keyLLMProvider))
	if !provider.IsValid() {
		return domain.LLMProviderNone
	}
	return provider
}

func (s *SettingsService) getStrategy(defaultVal domain.IndexStrategy) domain.IndexStrategy {
	strategy := domain.IndexStrategy(s.configStore.GetString(keyIndexStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getChunkMode(defaultVal domain.ChunkMode) domain.ChunkMode {
	mode := domain.ChunkMode(s.configStore.GetString(keyChunkMode))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
