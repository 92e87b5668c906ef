package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/ragd/ragd/internal/embed"
)

// Dense holds one unit-normalized embedding vector per live document, row i
// corresponding to the i-th document in the store.
type Dense struct {
	embedder  embed.Embedder
	threshold float64
	batchSize int

	rows [][]float32
}

// NewDense constructs an empty dense index. Call Rebuild (or
// Insert/Replace/RemoveAt incrementally) to populate it.
func NewDense(embedder embed.Embedder, threshold float64, batchSize int) *Dense {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Dense{embedder: embedder, threshold: threshold, batchSize: batchSize}
}

func (d *Dense) Name() string     { return "dense:" + d.embedder.Name() }
func (d *Dense) Available() bool  { return d.embedder != nil && len(d.rows) > 0 }
func (d *Dense) Len() int         { return len(d.rows) }
func (d *Dense) Row(i int) []float32 { return d.rows[i] }

// Rebuild re-encodes every text, discarding the previous matrix. texts must
// be in document-position order.
func (d *Dense) Rebuild(ctx context.Context, texts []string) error {
	rows := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += d.batchSize {
		end := start + d.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := d.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embedding batch [%d:%d]: %w", start, end, err)
		}
		rows = append(rows, batch...)
	}
	d.rows = rows
	return nil
}

// Insert appends a single row (used by Add), embedding text fresh.
func (d *Dense) Insert(ctx context.Context, text string) error {
	vecs, err := d.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embedding document: %w", err)
	}
	d.rows = append(d.rows, vecs[0])
	return nil
}

// Replace re-embeds the row at position i in place (used by Update when
// content changed).
func (d *Dense) Replace(ctx context.Context, pos int, text string) error {
	vecs, err := d.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("re-embedding document: %w", err)
	}
	d.rows[pos] = vecs[0]
	return nil
}

// RemoveAt deletes row pos by contiguous deletion, shifting subsequent rows
// left by one, preserving store/index row alignment.
func (d *Dense) RemoveAt(pos int) {
	d.rows = append(d.rows[:pos], d.rows[pos+1:]...)
}

// Score embeds query and returns the top `limit` rows whose cosine
// similarity exceeds the configured threshold, ordered by score descending
// then by ascending row index for ties.
func (d *Dense) Score(query string, limit int) ([]Scored, error) {
	if !d.Available() || limit <= 0 || query == "" {
		return nil, nil
	}
	vecs, err := d.embedder.Embed(context.Background(), []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	q := vecs[0]

	scored := make([]Scored, 0, len(d.rows))
	for i, row := range d.rows {
		sim := cosine(q, row)
		if sim > d.threshold {
			scored = append(scored, Scored{Position: i, Score: sim})
		}
	}
	sortScoredStable(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func cosine(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	// Rows are pre-unit-normalized, so the dot product is the cosine
	// similarity directly.
	return dot
}

// sortScoredStable orders by score descending, ties broken by ascending
// position (insertion order), matching the spec's tie-breaking rule.
func sortScoredStable(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Position < scored[j].Position
	})
}
