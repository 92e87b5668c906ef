package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragd/ragd/internal/document"
	"github.com/ragd/ragd/internal/embed"
	"github.com/ragd/ragd/internal/index"
)

func TestDense_ScoreOrdersByScoreThenPosition(t *testing.T) {
	ctx := context.Background()
	d := index.NewDense(embed.NewHashingEmbedder(), -1, 8)
	require.NoError(t, d.Rebuild(ctx, []string{"apple banana", "apple banana", "car truck"}))

	scored, err := d.Score("apple banana", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(scored), 2)
	assert.Equal(t, 0, scored[0].Position)
	assert.Equal(t, 1, scored[1].Position)
}

func TestDense_InsertReplaceRemoveAtKeepAlignment(t *testing.T) {
	ctx := context.Background()
	d := index.NewDense(embed.NewHashingEmbedder(), -1, 8)
	require.NoError(t, d.Rebuild(ctx, []string{"a", "b"}))
	require.NoError(t, d.Insert(ctx, "c"))
	assert.Equal(t, 3, d.Len())

	require.NoError(t, d.Replace(ctx, 1, "b2"))
	assert.Equal(t, 3, d.Len())

	d.RemoveAt(0)
	assert.Equal(t, 2, d.Len())
}

func TestDense_AvailableFalseWhenEmpty(t *testing.T) {
	d := index.NewDense(embed.NewHashingEmbedder(), -1, 8)
	assert.False(t, d.Available())
}

func TestSparse_RebuildAndScore(t *testing.T) {
	s := index.NewSparse(100, -1)
	s.Rebuild([]string{"rocket launch vehicle", "rocket launch vehicle", "banana smoothie recipe"})

	scored, err := s.Score("rocket launch", 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(scored), 2)
	assert.Equal(t, 0, scored[0].Position)
	assert.Equal(t, 1, scored[1].Position)
	assert.True(t, s.Available())
}

func TestSparse_InsertReplaceRemoveAt(t *testing.T) {
	s := index.NewSparse(100, -1)
	s.Rebuild([]string{"alpha beta", "gamma delta"})
	s.Insert("epsilon zeta")
	assert.Equal(t, 3, s.Len())

	s.Replace(0, "alpha updated")
	assert.Equal(t, 3, s.Len())

	s.RemoveAt(1)
	assert.Equal(t, 2, s.Len())
}

func TestAttrs_ByTagsAndByCategory(t *testing.T) {
	a := index.NewAttrs()
	docs := []*document.Document{
		{Tags: []string{"Go", "Backend"}, Category: "Engineering"},
		{Tags: []string{"go"}, Category: "Engineering"},
		{Tags: []string{"design"}, Category: "Product"},
	}
	a.Rebuild(docs)

	assert.Equal(t, []int{0, 1}, a.ByTags([]string{"go"}))
	assert.Equal(t, []int{0, 1}, a.ByCategory("engineering"))
	assert.Equal(t, []int{2}, a.ByCategory("product"))
}

func TestAttrs_RemoveAtShiftsPositions(t *testing.T) {
	a := index.NewAttrs()
	docs := []*document.Document{
		{Tags: []string{"x"}, Category: "c"},
		{Tags: []string{"x"}, Category: "c"},
		{Tags: []string{"x"}, Category: "c"},
	}
	a.Rebuild(docs)

	a.RemoveAt(0)
	assert.Equal(t, []int{0, 1}, a.ByTags([]string{"x"}))
}
