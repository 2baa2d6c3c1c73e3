package postprocessors

import (
	"fmt"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
	"github.com/swiftvisa/visarag/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// ChunkerConfig converts chunking settings into the generic processor config.
func ChunkerConfig(s domain.ChunkingSettings) map[string]any {
	return map[string]any{
		"max_words":    s.MaxWords,
		"stride_words": s.StrideWords,
		"mode":         string(s.Mode),
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - max_words (int): Upper bound on words per chunk (default: 200)
//   - stride_words (int): Minimum overlapping words between chunks (default: 50)
//   - mode (string): "sentence" or "word" (default: sentence)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := intSetting(cfg, "max_words"); size > 0 {
			opts = append(opts, chunker.WithMaxWords(size))
		}
		if _, ok := cfg["stride_words"]; ok {
			opts = append(opts, chunker.WithStrideWords(intSetting(cfg, "stride_words")))
		}
		if mode, ok := cfg["mode"].(string); ok && mode != "" {
			m := domain.ChunkMode(mode)
			if !m.IsValid() {
				return nil, fmt.Errorf("%w: chunk mode %q", domain.ErrInvalidInput, mode)
			}
			opts = append(opts, chunker.WithMode(m))
		}
	}

	return chunker.New(opts...), nil
}

// intSetting safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/YAML/JSON parsing.
func intSetting(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
