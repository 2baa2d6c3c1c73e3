package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_Show(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Vector Index]")
	assert.Contains(t, out, "Flat below: 20000 chunks")
	assert.Contains(t, out, "[Answer Model]")
	assert.Contains(t, out, "Not configured (retrieval only)")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_List(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, ts.settings.Set("embedding.api_key", "sk-1234567890abcdef"))

	out, err := execute(t, "settings", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "data_dir")
	assert.Contains(t, out, "/corpus")
	assert.Contains(t, out, "sk-1...cdef")
	assert.NotContains(t, out, "sk-1234567890abcdef")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(ts.settings.Keys()))
}

func TestSettingsCmd_GetSet(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "index.strategy", "ivfpq")
	require.NoError(t, err)
	assert.Contains(t, out, "index.strategy = ivfpq")

	out, err = execute(t, "settings", "get", "index.strategy")
	require.NoError(t, err)
	assert.Equal(t, "ivfpq\n", out)
}

func TestSettingsCmd_SetInvalid(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "settings", "set", "chunking.stride_words", "500")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_EmbeddingWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// Third provider is the in-process embedder; keep its default model.
	in := bytes.NewBufferString("3\n\n")
	settingsEmbeddingCmd.SetIn(in)
	defer settingsEmbeddingCmd.SetIn(nil)

	out, err := execute(t, "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")
	settings, err := ts.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, "hashing-v1", settings.Embedding.Model)
}

func TestSettingsCmd_LLMWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// Second choice is Ollama; keep its default model.
	in := bytes.NewBufferString("2\n\n")
	settingsLLMCmd.SetIn(in)
	defer settingsLLMCmd.SetIn(nil)

	out, err := execute(t, "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer model configured: Ollama (local) (llama3.2)")
	settings, err := ts.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.LLMProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3.2", settings.LLM.Model)

	out, err = execute(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Max tokens: 1024, temperature: 0.20")
}

func TestSettingsCmd_LLMWizard_Disable(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, ts.settings.Set("llm.provider", "ollama"))
	require.NoError(t, ts.settings.Set("llm.model", "llama3.2"))

	settingsLLMCmd.SetIn(bytes.NewBufferString("1\n"))
	defer settingsLLMCmd.SetIn(nil)

	out, err := execute(t, "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "Answer model disabled")
	settings, err := ts.settings.Get()
	require.NoError(t, err)
	assert.False(t, settings.LLM.IsConfigured())
}

func TestSettingsCmd_GetMasksLLMKeyOnSet(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "settings", "set", "llm.api_key", "sk-ant-0123456789wxyz")

	require.NoError(t, err)
	assert.Contains(t, out, "llm.api_key = sk-a...wxyz")
	assert.NotContains(t, out, "0123456789")
}
