package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashingEmbedder is a dependency-free, deterministic embedder: it hashes
// each token of the input text into one of Dim buckets (a signed hashing
// trick, à la feature hashing for text), accumulates signed counts, and
// unit-normalizes the result. It produces no semantic generalisation
// beyond shared vocabulary, but it is stable, requires no model download
// or network call, and is sufficient to exercise the dense tier of the
// retrieval cascade end-to-end offline.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder returns the default offline embedder with Dim dimensions.
func NewHashingEmbedder() *HashingEmbedder {
	return &HashingEmbedder{dim: Dim}
}

func (h *HashingEmbedder) Name() string { return "hashing-v1" }

func (h *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embedOne(t)
	}
	return out, nil
}

func (h *HashingEmbedder) embedOne(text string) []float32 {
	v := make([]float32, h.dim)
	for _, tok := range tokenize(text) {
		bucket, sign := hashToken(tok, h.dim)
		v[bucket] += sign
	}
	Normalize(v)
	return v
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hashToken maps a token to a bucket index and a sign bit, the standard
// feature-hashing construction that keeps the expected inner product of
// two independent hashed vectors near zero.
func hashToken(tok string, dim int) (int, float32) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(tok))
	sum := h.Sum32()
	bucket := int(sum % uint32(dim))

	h2 := fnv.New32a()
	_, _ = h2.Write([]byte(tok + "#sign"))
	if h2.Sum32()%2 == 0 {
		return bucket, 1
	}
	return bucket, -1
}
