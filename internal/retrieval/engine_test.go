package retrieval_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragd/ragd/internal/embed"
	"github.com/ragd/ragd/internal/index"
	"github.com/ragd/ragd/internal/retrieval"
	"github.com/ragd/ragd/internal/store"
)

func newTestEngine(t *testing.T) *retrieval.Engine {
	t.Helper()
	st := store.New(store.Options{
		DedupEnabled:      true,
		VersioningEnabled: true,
		AutoMigrateIDs:    true,
		Path:              filepath.Join(t.TempDir(), "documents.json"),
	})
	dense := index.NewDense(embed.NewHashingEmbedder(), -1, 8)
	sparse := index.NewSparse(1000, -1)
	attrs := index.NewAttrs()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := retrieval.New(log, st, dense, sparse, attrs, retrieval.Config{UseEmbeddings: true, UseSparse: true})
	require.NoError(t, e.Load(context.Background()))
	return e
}

func TestEngine_AddIndexesImmediately(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.Add(context.Background(), store.AddInput{Title: "Rocket", Content: "launch vehicle telemetry"})
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)

	results, err := e.Search(context.Background(), "rocket launch", 5, true)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, res.Doc.ID, results[0].Doc.ID)
}

func TestEngine_RemoveDropsRowAndSearch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Add(ctx, store.AddInput{Title: "First", Content: "alpha beta"})
	require.NoError(t, err)
	second, err := e.Add(ctx, store.AddInput{Title: "Second", Content: "gamma delta unique"})
	require.NoError(t, err)
	_, err = e.Add(ctx, store.AddInput{Title: "Third", Content: "epsilon zeta"})
	require.NoError(t, err)

	ok, err := e.Remove(second.Doc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stats, _ := e.Stats()
	assert.Equal(t, 2, stats.TotalDocuments)

	results, err := e.Search(ctx, "gamma delta", 5, true)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, second.Doc.ID, r.Doc.ID)
	}
}

func TestEngine_SearchFallsBackToSubstringWhenRankedTiersDisabled(t *testing.T) {
	st := store.New(store.Options{
		DedupEnabled:      true,
		VersioningEnabled: true,
		AutoMigrateIDs:    true,
		Path:              filepath.Join(t.TempDir(), "documents.json"),
	})
	dense := index.NewDense(embed.NewHashingEmbedder(), -1, 8)
	sparse := index.NewSparse(1000, -1)
	attrs := index.NewAttrs()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := retrieval.New(log, st, dense, sparse, attrs, retrieval.Config{UseEmbeddings: false, UseSparse: false})
	ctx := context.Background()
	require.NoError(t, e.Load(ctx))

	_, err := e.Add(ctx, store.AddInput{Title: "Needle", Content: "a very specific uncommon phrase"})
	require.NoError(t, err)

	results, err := e.Search(ctx, "specific uncommon", 5, true)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "substring", results[0].Tier)
}

func TestEngine_SparseTierPicksUpVocabularyIntroducedAfterLoad(t *testing.T) {
	st := store.New(store.Options{
		DedupEnabled:      true,
		VersioningEnabled: true,
		AutoMigrateIDs:    true,
		Path:              filepath.Join(t.TempDir(), "documents.json"),
	})
	dense := index.NewDense(embed.NewHashingEmbedder(), -1, 8)
	sparse := index.NewSparse(1000, -1)
	attrs := index.NewAttrs()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Dense disabled so a match can only come from the sparse tier.
	e := retrieval.New(log, st, dense, sparse, attrs, retrieval.Config{UseEmbeddings: false, UseSparse: true})
	ctx := context.Background()
	require.NoError(t, e.Load(ctx)) // Load over zero documents: sparse vocabulary starts empty.

	_, err := e.Add(ctx, store.AddInput{Title: "Xylophone", Content: "an unusual percussion instrument"})
	require.NoError(t, err)

	results, err := e.Search(ctx, "xylophone percussion", 5, true)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "sparse", results[0].Tier)
}

func TestEngine_SearchByTagsAndCategory(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	_, err := e.Add(ctx, store.AddInput{Title: "A", Content: "1", Tags: []string{"x"}, Category: "docs"})
	require.NoError(t, err)
	_, err = e.Add(ctx, store.AddInput{Title: "B", Content: "2", Tags: []string{"y"}, Category: "blog"})
	require.NoError(t, err)

	byTag := e.SearchByTags([]string{"x"}, 10)
	require.Len(t, byTag, 1)
	assert.Equal(t, "A", byTag[0].Title)

	byCategory := e.SearchByCategory("blog", 10)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "B", byCategory[0].Title)
}

func TestEngine_UpdateUnknownIDReturnsFalse(t *testing.T) {
	e := newTestEngine(t)
	ok, err := e.Update(context.Background(), "missing", store.UpdatePatch{})
	require.NoError(t, err)
	assert.False(t, ok)
}
