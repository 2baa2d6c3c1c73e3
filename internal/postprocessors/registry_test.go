package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

func stubBuilder(name string) BuilderFunc {
	return func(map[string]any) (driven.PostProcessor, error) {
		return &stubProcessor{name: name}, nil
	}
}

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Names())
	assert.False(t, r.Has("dedupe"))

	r.Register("dedupe", stubBuilder("dedupe"))
	require.True(t, r.Has("dedupe"))

	proc, err := r.Build("dedupe", nil)
	require.NoError(t, err)
	assert.Equal(t, "dedupe", proc.Name())
}

func TestRegistry_BuildUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register("chunker", stubBuilder("chunker"))

	_, err := r.Build("summariser", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "have chunker")
}

func TestRegistry_BuilderError(t *testing.T) {
	boom := errors.New("bad config")
	r := NewRegistry()
	r.Register("broken", func(map[string]any) (driven.PostProcessor, error) { return nil, boom })

	_, err := r.Build("broken", nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "building broken")
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("beta", stubBuilder("beta"))
	r.Register("alpha", stubBuilder("alpha"))
	r.Register("gamma", stubBuilder("gamma"))

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, r.Names())
}

func TestRegisterDefaults_Chunker(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	tests := []struct {
		name string
		cfg  map[string]any
	}{
		{"nil config", nil},
		{"settings", ChunkerConfig(domain.ChunkingSettings{MaxWords: 300, StrideWords: 75, Mode: domain.ChunkModeSentence})},
		{"decoded numbers", map[string]any{"max_words": float64(500), "stride_words": int64(100), "mode": "word"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc, err := r.Build("chunker", tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, "chunker", proc.Name())
		})
	}
}

func TestRegisterDefaults_ChunkerInvalidMode(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := r.Build("chunker", map[string]any{"mode": "paragraph"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChunkedThroughPipeline(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	proc, err := r.Build("chunker", ChunkerConfig(domain.ChunkingSettings{MaxWords: 4, StrideWords: 0, Mode: domain.ChunkModeWord}))
	require.NoError(t, err)

	chunks, err := NewPipeline(proc).Process(context.Background(), testDocument())
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Study permits require a", chunks[0].Text)
	assert.Equal(t, "letter of acceptance.", chunks[1].Text)
	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, []int{1}, c.Pages)
		assert.Equal(t, "canada", c.Country)
	}
}

func TestIntSetting(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want int
	}{
		{"int", map[string]any{"n": 100}, 100},
		{"int64", map[string]any{"n": int64(200)}, 200},
		{"float64", map[string]any{"n": float64(300)}, 300},
		{"string", map[string]any{"n": "400"}, 0},
		{"missing", map[string]any{"m": 1}, 0},
		{"nil map", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intSetting(tt.cfg, "n"))
		})
	}
}
