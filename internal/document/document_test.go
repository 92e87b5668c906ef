package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragd/ragd/internal/document"
)

func TestValidType_FoldsUnknownToText(t *testing.T) {
	assert.Equal(t, document.Code, document.ValidType("code"))
	assert.Equal(t, document.Text, document.ValidType("bogus"))
	assert.Equal(t, document.Text, document.ValidType(""))
}

func TestContentHash_StableAndSensitiveToInput(t *testing.T) {
	h1 := document.ContentHash("title", "content")
	h2 := document.ContentHash("title", "content")
	h3 := document.ContentHash("title", "different")
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestShortHash_Truncates(t *testing.T) {
	full := document.ContentHash("a", "b")
	assert.Len(t, document.ShortHash(full), 16)
	assert.Equal(t, "abcd", document.ShortHash("abcd"))
}

func TestUnionTags_DedupsCaseInsensitivelyAndSorts(t *testing.T) {
	out := document.UnionTags([]string{"Foo", "bar"}, []string{"FOO", "baz"})
	assert.Equal(t, []string{"Foo", "bar", "baz"}, out)
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	legacy := "old-id"
	d := &document.Document{
		ID:       "1",
		LegacyID: &legacy,
		Tags:     []string{"a"},
		Metadata: map[string]any{"k": "v"},
	}
	cp := d.Clone()
	cp.Tags[0] = "mutated"
	cp.Metadata["k"] = "changed"
	*cp.LegacyID = "new-id"

	assert.Equal(t, "a", d.Tags[0])
	assert.Equal(t, "v", d.Metadata["k"])
	assert.Equal(t, "old-id", *d.LegacyID)
}

func TestDocument_EmbeddingTextConcatenatesTitleAndContent(t *testing.T) {
	d := &document.Document{Title: "T", Content: "C"}
	assert.Equal(t, "T C", d.EmbeddingText())
}

func TestDocument_NormalizedAccessorsLowercase(t *testing.T) {
	d := &document.Document{Tags: []string{"Foo", "BAR"}, Category: "Docs"}
	assert.Equal(t, []string{"foo", "bar"}, d.NormalizedTags())
	assert.Equal(t, "docs", d.NormalizedCategory())
}
