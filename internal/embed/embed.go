// Package embed provides pluggable dense-embedding backends for the C2
// derived dense index. Embedder is intentionally tiny so new backends are a
// list addition, not a change to the retrieval engine (spec design note on
// cascading rankers).
package embed

import (
	"context"
	"math"
)

// Dim is the dimensionality of vectors produced by HashingEmbedder.
// OpenAIEmbedder returns vectors of the selected model's own width, which
// is not Dim. Changing backends at runtime is not supported; every row of
// the dense index must come from the same backend.
const Dim = 384

// Embedder turns text into a unit-normalized vector in cosine-similarity
// space.
type Embedder interface {
	// Embed encodes a single batch of texts, returning one vector per
	// input text in the same order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the backend for logging and stats.
	Name() string
}

// Normalize scales v to unit L2 length in place. Returns the (possibly
// zero) original norm.
func Normalize(v []float32) float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return 0
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return float32(norm)
}
