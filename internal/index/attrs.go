package index

import (
	"strings"

	"github.com/ragd/ragd/internal/document"
)

// Attrs holds the tag and category inverted indices: lower-cased key to the
// set of row positions carrying that key. Position sets are maintained in
// insertion order so SearchByTags/SearchByCategory can return results in
// insertion order, per spec.
type Attrs struct {
	tags       map[string][]int
	categories map[string][]int
}

// NewAttrs returns an empty attribute index.
func NewAttrs() *Attrs {
	return &Attrs{tags: map[string][]int{}, categories: map[string][]int{}}
}

// Rebuild reconstructs both inverted indices from the ordered document list.
func (a *Attrs) Rebuild(docs []*document.Document) {
	a.tags = map[string][]int{}
	a.categories = map[string][]int{}
	for i, doc := range docs {
		a.addAt(i, doc)
	}
}

func (a *Attrs) addAt(pos int, doc *document.Document) {
	for _, t := range doc.NormalizedTags() {
		a.tags[t] = append(a.tags[t], pos)
	}
	a.categories[doc.NormalizedCategory()] = append(a.categories[doc.NormalizedCategory()], pos)
}

// Insert registers a newly appended document at the next position
// (len(docs)-1 in the caller).
func (a *Attrs) Insert(pos int, doc *document.Document) {
	a.addAt(pos, doc)
}

// RemoveAt drops pos from every set it appears in and shifts every
// position greater than pos down by one, keeping the index aligned with
// the store after a contiguous deletion.
func (a *Attrs) RemoveAt(pos int) {
	shift := func(m map[string][]int) {
		for k, positions := range m {
			out := positions[:0]
			for _, p := range positions {
				switch {
				case p == pos:
					continue
				case p > pos:
					out = append(out, p-1)
				default:
					out = append(out, p)
				}
			}
			if len(out) == 0 {
				delete(m, k)
			} else {
				m[k] = out
			}
		}
	}
	shift(a.tags)
	shift(a.categories)
}

// ByTags returns the union of positions for each lower-cased tag,
// de-duplicated, in first-seen (insertion) order.
func (a *Attrs) ByTags(tags []string) []int {
	seen := map[int]bool{}
	var out []int
	for _, t := range tags {
		for _, pos := range a.tags[normalizeKey(t)] {
			if !seen[pos] {
				seen[pos] = true
				out = append(out, pos)
			}
		}
	}
	return out
}

// ByCategory returns the positions tagged with category, in insertion order.
func (a *Attrs) ByCategory(category string) []int {
	return append([]int(nil), a.categories[normalizeKey(category)]...)
}

func normalizeKey(s string) string {
	return strings.ToLower(s)
}
