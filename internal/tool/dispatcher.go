// Package tool implements the Tool Dispatcher (C4): one Go method per named
// RPC operation, translating typed Go arguments (extracted from the RPC
// argument maps by internal/rpc) into calls against
// internal/retrieval.Engine, and NotFound outcomes
// into {success:false} results rather than errors, per spec.
package tool

import (
	"context"
	"fmt"

	"github.com/ragd/ragd/internal/document"
	"github.com/ragd/ragd/internal/retrieval"
	"github.com/ragd/ragd/internal/store"
)

// Dispatcher exposes the fixed eight-operation catalogue over the engine.
// It holds no lock of its own; every method delegates straight through to
// Engine, which owns the single RWMutex spanning store and indices.
type Dispatcher struct {
	engine        *retrieval.Engine
	defaultSearch int
	serverVersion string
}

// New builds a Dispatcher. defaultSearchLimit is used by search when the
// caller omits limit; search_by_tags and search_by_category default to 10.
func New(engine *retrieval.Engine, defaultSearchLimit int, serverVersion string) *Dispatcher {
	return &Dispatcher{engine: engine, defaultSearch: defaultSearchLimit, serverVersion: serverVersion}
}

// ErrUnknownTool reports an unknown tool name. No Dispatcher method returns
// it and internal/rpc does not map it; tool names are routed by the MCP
// server library that internal/rpc registers the tools with.
type ErrUnknownTool struct{ Name string }

func (e ErrUnknownTool) Error() string { return fmt.Sprintf("unknown tool: %s", e.Name) }

// ErrInvalidParams reports a missing or malformed argument. internal/rpc
// returns it to the client as a tool result flagged as an error, carrying
// the Reason text; it is not sent as a JSON-RPC error response with the
// invalid-params code.
type ErrInvalidParams struct{ Reason string }

func (e ErrInvalidParams) Error() string { return e.Reason }

// ScoredDoc is one hit in a search result.
type ScoredDoc struct {
	Doc   *document.Document `json:"document"`
	Score float64            `json:"score"`
	Tier  string             `json:"tier"`
}

// SearchResult is the result shape for search, search_by_tags and
// search_by_category.
type SearchResult struct {
	Results  []ScoredDoc `json:"results"`
	Query    string      `json:"query,omitempty"`
	Tags     []string    `json:"tags,omitempty"`
	Category string      `json:"category,omitempty"`
	Total    int         `json:"total"`
}

func (d *Dispatcher) limitOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Search implements the `search` tool.
func (d *Dispatcher) Search(ctx context.Context, query string, limit int, useSemantic bool) (SearchResult, error) {
	if query == "" {
		return SearchResult{}, ErrInvalidParams{"query is required"}
	}
	limit = d.limitOr(limit, d.defaultSearch)

	hits, err := d.engine.Search(ctx, query, limit, useSemantic)
	if err != nil {
		return SearchResult{}, err
	}
	out := make([]ScoredDoc, len(hits))
	for i, h := range hits {
		out[i] = ScoredDoc{Doc: h.Doc, Score: h.Score, Tier: h.Tier}
	}
	return SearchResult{Results: out, Query: query, Total: len(out)}, nil
}

// SearchByTags implements the `search_by_tags` tool.
func (d *Dispatcher) SearchByTags(tags []string, limit int) (SearchResult, error) {
	if len(tags) == 0 {
		return SearchResult{}, ErrInvalidParams{"tags is required"}
	}
	limit = d.limitOr(limit, 10)

	docs := d.engine.SearchByTags(tags, limit)
	out := make([]ScoredDoc, len(docs))
	for i, doc := range docs {
		out[i] = ScoredDoc{Doc: doc, Score: 1, Tier: "tags"}
	}
	return SearchResult{Results: out, Tags: tags, Total: len(out)}, nil
}

// SearchByCategory implements the `search_by_category` tool.
func (d *Dispatcher) SearchByCategory(category string, limit int) (SearchResult, error) {
	if category == "" {
		return SearchResult{}, ErrInvalidParams{"category is required"}
	}
	limit = d.limitOr(limit, 10)

	docs := d.engine.SearchByCategory(category, limit)
	out := make([]ScoredDoc, len(docs))
	for i, doc := range docs {
		out[i] = ScoredDoc{Doc: doc, Score: 1, Tier: "category"}
	}
	return SearchResult{Results: out, Category: category, Total: len(out)}, nil
}

// AddParams carries the `add` tool's accepted arguments.
type AddParams struct {
	ID       string
	Title    string
	Content  string
	Type     string
	Source   string
	Category string
	Tags     []string
	Metadata map[string]any
}

// AddOutcome is the `add` tool's result shape.
type AddOutcome struct {
	Doc          *document.Document `json:"document"`
	Deduplicated bool               `json:"deduplicated"`
}

// Add implements the `add` tool.
func (d *Dispatcher) Add(ctx context.Context, p AddParams) (AddOutcome, error) {
	if p.Title == "" {
		return AddOutcome{}, ErrInvalidParams{"title is required"}
	}
	if p.Content == "" {
		return AddOutcome{}, ErrInvalidParams{"content is required"}
	}

	res, err := d.engine.Add(ctx, store.AddInput{
		ID:       p.ID,
		Title:    p.Title,
		Content:  p.Content,
		Type:     p.Type,
		Source:   p.Source,
		Category: p.Category,
		Tags:     p.Tags,
		Metadata: p.Metadata,
	})
	if err != nil {
		return AddOutcome{}, err
	}
	return AddOutcome{Doc: res.Doc, Deduplicated: res.Deduplicated}, nil
}

// UpdateParams carries the `update` tool's accepted arguments. Nil pointers
// (and a nil Tags) mean "leave unchanged".
type UpdateParams struct {
	ID       string
	Title    *string
	Content  *string
	Tags     *[]string
	Category *string
	Metadata map[string]any
}

// Update implements the `update` tool, returning success=false (never an
// error) when id is unknown.
func (d *Dispatcher) Update(ctx context.Context, p UpdateParams) (bool, error) {
	if p.ID == "" {
		return false, ErrInvalidParams{"id is required"}
	}
	ok, err := d.engine.Update(ctx, p.ID, store.UpdatePatch{
		Title:    p.Title,
		Content:  p.Content,
		Tags:     p.Tags,
		Category: p.Category,
		Metadata: p.Metadata,
	})
	return ok, err
}

// Remove implements the `remove` tool.
func (d *Dispatcher) Remove(id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidParams{"id is required"}
	}
	return d.engine.Remove(id)
}

// ListParams carries the `list` tool's optional filter.
type ListParams struct {
	Category string
	Tags     []string
	Source   string
}

// ListResult is the `list` tool's result shape.
type ListResult struct {
	Documents []document.Summary `json:"documents"`
	Total     int                `json:"total"`
}

// List implements the `list` tool.
func (d *Dispatcher) List(p ListParams) ListResult {
	docs := d.engine.List(store.ListFilter{Category: p.Category, Tags: p.Tags, Source: p.Source})
	return ListResult{Documents: docs, Total: len(docs)}
}

// StatsResult is the `stats` tool's result shape.
type StatsResult struct {
	TotalDocuments int                `json:"total_documents"`
	UniqueHashes   int                `json:"unique_hashes"`
	TypeCounts     map[string]int     `json:"type_counts"`
	CategoryCounts map[string]int     `json:"category_counts"`
	SourceCounts   map[string]int     `json:"source_counts"`
	TagCounts      map[string]int     `json:"tag_counts"`
	VersionStats   store.VersionStats `json:"version_stats"`
	OldestCreated  *string            `json:"oldest_created,omitempty"`
	NewestCreated  *string            `json:"newest_created,omitempty"`
	CacheSizeBytes int64              `json:"cache_size_bytes"`
	DensePresent   bool               `json:"dense_index_present"`
	SparsePresent  bool               `json:"sparse_index_present"`
	ServerVersion  string             `json:"server_version"`
}

// Stats implements the `stats` tool.
func (d *Dispatcher) Stats() StatsResult {
	st, flags := d.engine.Stats()
	out := StatsResult{
		TotalDocuments: st.TotalDocuments,
		UniqueHashes:   st.UniqueHashes,
		TypeCounts:     st.TypeCounts,
		CategoryCounts: st.CategoryCounts,
		SourceCounts:   st.SourceCounts,
		TagCounts:      st.TagCounts,
		VersionStats:   st.VersionStats,
		CacheSizeBytes: st.CacheSizeBytes,
		DensePresent:   flags.DensePresent,
		SparsePresent:  flags.SparsePresent,
		ServerVersion:  d.serverVersion,
	}
	if st.OldestCreated != nil {
		s := st.OldestCreated.Format("2006-01-02T15:04:05Z07:00")
		out.OldestCreated = &s
	}
	if st.NewestCreated != nil {
		s := st.NewestCreated.Format("2006-01-02T15:04:05Z07:00")
		out.NewestCreated = &s
	}
	return out
}
