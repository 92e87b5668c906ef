package watcher

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragd/ragd/internal/document"
	"github.com/ragd/ragd/internal/streamhub"
)

func TestTruncate_AddsEllipsisOnlyWhenNeeded(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("a", 20), 5), "…"))
	assert.Equal(t, 6, len([]rune(truncate(strings.Repeat("a", 20), 5))))
}

func TestResolveURL_PrecedenceFonteThenSourceThenDefault(t *testing.T) {
	w := &Watcher{defaultURL: "https://default.example"}

	withFonte := &document.Document{Content: "Fonte: https://example.com/page\nbody", Source: "ignored"}
	assert.Equal(t, "https://example.com/page", w.resolveURL(withFonte))

	withSource := &document.Document{Content: "no fonte here", Source: "https://source.example"}
	assert.Equal(t, "https://source.example", w.resolveURL(withSource))

	withNeither := &document.Document{Content: "plain", Source: "not-a-url"}
	assert.Equal(t, "https://default.example", w.resolveURL(withNeither))
}

func TestProject_FiltersByPredicateAndTruncatesContent(t *testing.T) {
	w := &Watcher{
		predicate:  Predicate{TagSubstring: "a2a"},
		defaultURL: "https://default.example",
	}
	docs := []*document.Document{
		{ID: "1", Title: "In", Content: strings.Repeat("x", 600), Tags: []string{"a2a"}, UpdatedAt: time.Now()},
		{ID: "2", Title: "Out", Content: "short", Tags: []string{"other"}, UpdatedAt: time.Now()},
	}

	snap := w.project(docs)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "1", snap.Documents[0].ID)
	assert.True(t, strings.HasSuffix(snap.Documents[0].Content, "…"))
	assert.Equal(t, 600, len(snap.Documents[0].FullContent))
	assert.Equal(t, 1, snap.Metadata.Total)
}

func TestWatcher_TickPublishesOnlyWhenContentChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.json")

	write := func(docs []*document.Document) {
		data, err := json.Marshal(struct {
			Documents []*document.Document `json:"documents"`
		}{Documents: docs})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o644))
	}
	write([]*document.Document{{ID: "1", Title: "A", Tags: []string{"a2a"}, UpdatedAt: time.Now()}})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := streamhub.New(log)
	w := New(log, path, Predicate{TagSubstring: "a2a"}, "", hub)

	w.tick()
	assert.True(t, w.hasHash)
	first := w.lastHash

	w.tick()
	assert.Equal(t, first, w.lastHash)

	write([]*document.Document{
		{ID: "1", Title: "A", Tags: []string{"a2a"}, UpdatedAt: time.Now()},
		{ID: "2", Title: "B", Tags: []string{"a2a"}, UpdatedAt: time.Now()},
	})
	w.tick()
	assert.NotEqual(t, first, w.lastHash)
}
