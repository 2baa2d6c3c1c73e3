package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetadataStore(t *testing.T) {
	t.Run("accepts contiguous zero-based ids", func(t *testing.T) {
		store, err := NewMetadataStore([]Chunk{
			{ID: 0, Text: "a", Country: "canada"},
			{ID: 1, Text: "b", Country: "usa"},
			{ID: 2, Text: "c", Country: "canada"},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, store.Len())

		c, ok := store.Get(1)
		require.True(t, ok)
		assert.Equal(t, "b", c.Text)
		assert.Equal(t, []string{"canada", "usa"}, store.Countries())
	})

	t.Run("rejects a gap", func(t *testing.T) {
		_, err := NewMetadataStore([]Chunk{{ID: 0, Text: "a"}, {ID: 2, Text: "c"}})
		assert.True(t, errors.Is(err, ErrCorruptArtifact))
	})

	t.Run("rejects a duplicate", func(t *testing.T) {
		_, err := NewMetadataStore([]Chunk{{ID: 0, Text: "a"}, {ID: 0, Text: "b"}})
		assert.True(t, errors.Is(err, ErrCorruptArtifact))
	})

	t.Run("rejects empty text", func(t *testing.T) {
		_, err := NewMetadataStore([]Chunk{{ID: 0, Text: ""}})
		assert.True(t, errors.Is(err, ErrInvalidInput))
	})
}

func TestMetadataStore_Get(t *testing.T) {
	store, err := NewMetadataStore([]Chunk{{ID: 0, Text: "a"}})
	require.NoError(t, err)

	_, ok := store.Get(-1)
	assert.False(t, ok)
	_, ok = store.Get(1)
	assert.False(t, ok)

	var nilStore *MetadataStore
	_, ok = nilStore.Get(0)
	assert.False(t, ok)
	assert.Equal(t, 0, nilStore.Len())
}

func TestMetadataStore_ChunksIsCopy(t *testing.T) {
	store, err := NewMetadataStore([]Chunk{{ID: 0, Text: "a"}})
	require.NoError(t, err)

	chunks := store.Chunks()
	chunks[0].Text = "mutated"

	c, _ := store.Get(0)
	assert.Equal(t, "a", c.Text)
}
