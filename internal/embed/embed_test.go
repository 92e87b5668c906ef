package embed_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragd/ragd/internal/embed"
)

func TestHashingEmbedder_DeterministicAndNormalized(t *testing.T) {
	e := embed.NewHashingEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, []string{"the quick brown fox"})
	require.NoError(t, err)
	v2, err := e.Embed(ctx, []string{"the quick brown fox"})
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, embed.Dim, len(v1[0]))

	var norm float64
	for _, x := range v1[0] {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestHashingEmbedder_DifferentTextsDifferentVectors(t *testing.T) {
	e := embed.NewHashingEmbedder()
	vecs, err := e.Embed(context.Background(), []string{"alpha", "completely different text"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestNormalize_ZeroVectorStaysZero(t *testing.T) {
	v := make([]float32, 4)
	norm := embed.Normalize(v)
	assert.Equal(t, float32(0), norm)
	for _, x := range v {
		assert.Equal(t, float32(0), x)
	}
}
