package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func dist(a, b []float32) float64 {
	var s float64
	for i := range a {
		d := float64(a[i] - b[i])
		s += d * d
	}
	return s
}

func TestEmbed_Deterministic(t *testing.T) {
	svc := NewEmbeddingService(Config{})
	ctx := context.Background()

	a, err := svc.Embed(ctx, "Skilled worker visa salary threshold")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "skilled WORKER visa, salary threshold!")
	require.NoError(t, err)

	assert.Len(t, a, DefaultDimensions)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, norm(a), 1e-5)
}

func TestEmbed_Similarity(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 256})
	ctx := context.Background()

	query, _ := svc.Embed(ctx, "student visa financial requirements")
	close1, _ := svc.Embed(ctx, "The student visa has financial requirements for tuition.")
	far, _ := svc.Embed(ctx, "Family reunification permits for spouses and children.")

	assert.Less(t, dist(query, close1), dist(query, far))
}

func TestEmbed_EmptyText(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 8})

	v, err := svc.Embed(context.Background(), " ... ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), v)
}

func TestEmbedBatch(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 16})
	ctx := context.Background()

	out, err := svc.EmbedBatch(ctx, []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	one, _ := svc.Embed(ctx, "one")
	assert.Equal(t, one, out[0])

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.EmbedBatch(cancelled, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMetadata(t *testing.T) {
	svc := NewEmbeddingService(Config{Dimensions: 32})
	assert.Equal(t, 32, svc.Dimensions())
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
