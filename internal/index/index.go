// Package index implements the derived indices (C2): a dense embedding
// matrix, a sparse TF-IDF matrix, and inverted tag/category indices. All
// three are reconstructible from the document store and carry no identity
// of their own beyond row position, which must always match the position
// of the corresponding document in the store's ordered list.
package index

// Scored pairs a document's row position with a ranking score.
type Scored struct {
	Position int
	Score    float64
}

// Ranker is one tier of the retrieval cascade. Score scores a query
// against the ranker's current corpus; Available reports whether this
// tier has a usable index to query (e.g. the dense matrix has rows, the
// sparse vectorizer has been fit). Dense and Sparse implement it. The
// retrieval engine does not iterate a list of Rankers: Engine.Search holds
// a *Dense and a *Sparse and queries them in a fixed dense-then-sparse
// order, so adding a tier means editing Engine.Search.
type Ranker interface {
	Name() string
	Available() bool
	Score(query string, limit int) ([]Scored, error)
}
