package watcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragd/ragd/internal/document"
	"github.com/ragd/ragd/internal/watcher"
)

func TestPredicate_MatchesTagCategoryOrSource(t *testing.T) {
	byTag := watcher.Predicate{TagSubstring: "a2a"}
	assert.True(t, byTag.Matches(&document.Document{Tags: []string{"A2A-Protocol"}}))
	assert.False(t, byTag.Matches(&document.Document{Tags: []string{"other"}}))

	byCategory := watcher.Predicate{CategoryPrefix: "a2a"}
	assert.True(t, byCategory.Matches(&document.Document{Category: "A2A/design"}))

	bySource := watcher.Predicate{SourceSubstring: "a2aprotocol"}
	assert.True(t, bySource.Matches(&document.Document{Source: "https://a2aprotocol.ai/blog/x"}))
	assert.False(t, bySource.Matches(&document.Document{Source: "https://example.com"}))
}

func TestPredicate_ZeroValueMatchesNothing(t *testing.T) {
	var p watcher.Predicate
	assert.False(t, p.Matches(&document.Document{Tags: []string{"anything"}, Category: "anything", Source: "anything"}))
}
