package driven

import "context"

// LLMService generates answers from an assembled prompt.
// This is an optional service. When nil, answering is disabled and
// retrieval keeps working.
//
// Implementations include:
//   - Ollama (local models)
//   - OpenAI and compatible endpoints
//   - Anthropic
type LLMService interface {
	// Generate produces a completion for prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable without running inference.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// System is an optional system instruction sent ahead of the prompt.
	System string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
