// Package retrieval implements the Retrieval Engine (C3) together with the
// single read-write lock that spans the document store (C1) and derived
// indices (C2), since spec treats them as one unit of shared state: no
// reader may ever observe a matrix whose row count disagrees with the
// document list.
package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ragd/ragd/internal/document"
	"github.com/ragd/ragd/internal/index"
	"github.com/ragd/ragd/internal/store"
)

// Engine owns the store and its derived indices under a single RWMutex.
// Mutating operations (Add/Update/Remove) acquire the exclusive lock for
// the full mutate→persist→reindex sequence; queries (Search/List/Stats)
// acquire the shared lock.
type Engine struct {
	mu sync.RWMutex

	log    *slog.Logger
	store  *store.Store
	dense  *index.Dense
	sparse *index.Sparse
	attrs  *index.Attrs

	useEmbeddings bool
	useSparse     bool
}

// Config bundles the feature toggles the engine consults when deciding the
// cascade's available tiers.
type Config struct {
	UseEmbeddings bool
	UseSparse     bool
}

// New builds an Engine. Call Load before serving traffic.
func New(log *slog.Logger, st *store.Store, dense *index.Dense, sparse *index.Sparse, attrs *index.Attrs, cfg Config) *Engine {
	return &Engine{
		log:           log,
		store:         st,
		dense:         dense,
		sparse:        sparse,
		attrs:         attrs,
		useEmbeddings: cfg.UseEmbeddings,
		useSparse:     cfg.UseSparse,
	}
}

// Load reads the store from disk and rebuilds every derived index from it.
// Load failures in the store degrade to an empty store (per spec); index
// rebuild then proceeds over whatever (possibly zero) documents resulted.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Load(); err != nil {
		e.log.Warn("store load degraded to empty store", "error", err)
	}
	return e.rebuildIndicesLocked(ctx)
}

func (e *Engine) rebuildIndicesLocked(ctx context.Context) error {
	docs := e.store.Docs()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.EmbeddingText()
	}

	if e.useEmbeddings && e.dense != nil {
		if err := e.dense.Rebuild(ctx, texts); err != nil {
			e.log.Warn("dense index rebuild failed, dense tier degraded", "error", err)
		}
	}
	if e.useSparse && e.sparse != nil {
		e.sparse.Rebuild(texts)
	}
	e.attrs.Rebuild(docs)
	return nil
}

// Add inserts or deduplicates a document, then synchronously updates the
// derived indices before releasing the lock, preserving row alignment.
func (e *Engine) Add(ctx context.Context, in store.AddInput) (store.AddResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.store.Len()
	res, err := e.store.Add(in)
	if err != nil {
		return res, err
	}

	if res.Deduplicated {
		// A hash match means the title and content are unchanged, so the
		// dense and sparse rows stay valid; only tags changed, so only
		// attrs need a refresh.
		e.attrs.Rebuild(e.store.Docs())
		return res, nil
	}

	if e.store.Len() != before+1 {
		// Defensive: should be unreachable, but never let indices silently
		// drift out of alignment with the store.
		return res, e.rebuildIndicesLocked(ctx)
	}

	if e.useEmbeddings && e.dense != nil {
		if err := e.dense.Insert(ctx, res.Doc.EmbeddingText()); err != nil {
			e.log.Warn("dense insert failed, rebuilding full index", "error", err)
			return res, e.rebuildIndicesLocked(ctx)
		}
	}
	if e.useSparse && e.sparse != nil {
		// A corpus addition always changes document frequencies, so the
		// fitted vocabulary is refit every time rather than left stale
		// behind an incremental insert (vocabulary growth is otherwise
		// invisible to new queries until the next full Load).
		e.rebuildSparseLocked()
	}
	e.attrs.Insert(res.Position, res.Doc)

	return res, nil
}

// rebuildSparseLocked refits the sparse vectorizer against the full,
// current corpus. Called instead of Sparse.Insert/Replace whenever the
// document set changes, so the sparse tier never serves queries against a
// vocabulary that has drifted from the live corpus.
func (e *Engine) rebuildSparseLocked() {
	docs := e.store.Docs()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.EmbeddingText()
	}
	e.sparse.Rebuild(texts)
}

// Update applies patch, re-embedding the row when content changed.
func (e *Engine) Update(ctx context.Context, id string, patch store.UpdatePatch) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	contentChanging := patch.Title != nil || patch.Content != nil
	pos, ok, err := e.store.Update(id, patch)
	if !ok {
		return false, err
	}

	doc := e.store.Docs()[pos]
	if contentChanging {
		if e.useEmbeddings && e.dense != nil {
			if rerr := e.dense.Replace(ctx, pos, doc.EmbeddingText()); rerr != nil {
				e.log.Warn("dense replace failed, rebuilding full index", "error", rerr)
				_ = e.rebuildIndicesLocked(ctx)
				return true, err
			}
		}
		if e.useSparse && e.sparse != nil {
			e.rebuildSparseLocked()
		}
	}
	e.attrs.Rebuild(e.store.Docs())

	return true, err
}

// Remove deletes id, dropping the corresponding row from every index.
func (e *Engine) Remove(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.store.Position(id)
	if !ok {
		return false, nil
	}

	removed, err := e.store.Remove(id)
	if !removed {
		return false, err
	}

	if e.dense != nil && e.dense.Len() > pos {
		e.dense.RemoveAt(pos)
	}
	if e.useSparse && e.sparse != nil && e.sparse.Len() > pos {
		e.rebuildSparseLocked()
	}
	e.attrs.RemoveAt(pos)

	return true, err
}

// Get returns a copy of the document identified by id, or nil.
func (e *Engine) Get(id string) *document.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Get(id)
}

// List returns summaries matching filter.
func (e *Engine) List(filter store.ListFilter) []document.Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.List(filter)
}

// Stats returns the raw store statistics plus index-presence flags.
func (e *Engine) Stats() (store.Stats, IndexFlags) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Stats(), IndexFlags{
		DensePresent:  e.dense != nil && e.dense.Available(),
		SparsePresent: e.sparse != nil && e.sparse.Available(),
	}
}

// IndexFlags reports which derived index tiers are currently populated.
type IndexFlags struct {
	DensePresent  bool
	SparsePresent bool
}

// SearchResult is one scored hit from Search.
type SearchResult struct {
	Doc   *document.Document
	Score float64
	Tier  string
}

// Search runs the ranking cascade (dense → sparse → substring), stopping at
// the first tier that yields results. useSemantic=false skips the dense
// tier even if available, per the `search` tool's use_semantic parameter.
func (e *Engine) Search(ctx context.Context, query string, limit int, useSemantic bool) ([]SearchResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if query == "" || limit <= 0 || e.store.Len() == 0 {
		return nil, nil
	}

	if useSemantic && e.useEmbeddings && e.dense != nil && e.dense.Available() {
		scored, err := e.dense.Score(query, limit)
		if err != nil {
			e.log.Warn("dense tier failed, falling back", "error", err)
		} else if len(scored) > 0 {
			return e.materialize(scored, "dense"), nil
		}
	}

	if e.useSparse && e.sparse != nil && e.sparse.Available() {
		scored, err := e.sparse.Score(query, limit)
		if err != nil {
			e.log.Warn("sparse tier failed, falling back", "error", err)
		} else if len(scored) > 0 {
			return e.materialize(scored, "sparse"), nil
		}
	}

	return e.substringSearch(query, limit), nil
}

func (e *Engine) materialize(scored []index.Scored, tier string) []SearchResult {
	docs := e.store.Docs()
	out := make([]SearchResult, 0, len(scored))
	for _, s := range scored {
		out = append(out, SearchResult{Doc: docs[s.Position].Clone(), Score: s.Score, Tier: tier})
	}
	return out
}

// substringSearch is the last-resort tier: case-folded substring counting
// over title‖content‖tags, normalised by word count so long documents are
// not unduly favoured.
func (e *Engine) substringSearch(query string, limit int) []SearchResult {
	q := strings.ToLower(query)
	docs := e.store.Docs()

	type hit struct {
		pos   int
		score float64
	}
	var hits []hit
	for i, d := range docs {
		haystack := strings.ToLower(d.Title + d.Content + strings.Join(d.Tags, " "))
		count := strings.Count(haystack, q)
		if count == 0 {
			continue
		}
		words := len(strings.Fields(haystack))
		if words == 0 {
			words = 1
		}
		hits = append(hits, hit{pos: i, score: float64(count) / float64(words)})
	}

	// Stable sort: descending score, ascending position for ties.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && (hits[j].score > hits[j-1].score); j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchResult{Doc: docs[h.pos].Clone(), Score: h.score, Tier: "substring"})
	}
	return out
}

// SearchByTags returns documents carrying any of tags, in insertion order.
func (e *Engine) SearchByTags(tags []string, limit int) []*document.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if limit <= 0 {
		return nil
	}
	docs := e.store.Docs()
	positions := e.attrs.ByTags(tags)
	if len(positions) > limit {
		positions = positions[:limit]
	}
	out := make([]*document.Document, 0, len(positions))
	for _, p := range positions {
		out = append(out, docs[p].Clone())
	}
	return out
}

// SearchByCategory returns documents in category, in insertion order.
func (e *Engine) SearchByCategory(category string, limit int) []*document.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if limit <= 0 {
		return nil
	}
	docs := e.store.Docs()
	positions := e.attrs.ByCategory(category)
	if len(positions) > limit {
		positions = positions[:limit]
	}
	out := make([]*document.Document, 0, len(positions))
	for _, p := range positions {
		out = append(out, docs[p].Clone())
	}
	return out
}
