package store

import (
	"os"
	"time"
)

// Stats is the raw counting data the store can answer about itself without
// consulting the derived indices. The tool dispatcher augments this with
// index-presence flags and server version.
type Stats struct {
	TotalDocuments int
	UniqueHashes   int
	TypeCounts     map[string]int
	CategoryCounts map[string]int
	SourceCounts   map[string]int
	TagCounts      map[string]int
	VersionStats   VersionStats
	OldestCreated  *time.Time
	NewestCreated  *time.Time
	CacheSizeBytes int64
}

// VersionStats breaks down documents by whether their version has ever been
// bumped (version > 1), by deduplication or by a title/content update,
// supplementing the reference implementation's get_stats output.
type VersionStats struct {
	SingleVersion int
	MultiVersion  int
	MaxVersion    int
}

// Stats computes a fresh statistics snapshot over the live document set.
func (s *Store) Stats() Stats {
	st := Stats{
		TotalDocuments: len(s.docs),
		UniqueHashes:   len(s.byHash),
		TypeCounts:     map[string]int{},
		CategoryCounts: map[string]int{},
		SourceCounts:   map[string]int{},
		TagCounts:      map[string]int{},
	}

	for _, doc := range s.docs {
		st.TypeCounts[string(doc.Type)]++
		st.CategoryCounts[doc.NormalizedCategory()]++
		if doc.Source != "" {
			st.SourceCounts[doc.Source]++
		}
		for _, t := range doc.NormalizedTags() {
			st.TagCounts[t]++
		}

		if doc.Version == 1 {
			st.VersionStats.SingleVersion++
		} else {
			st.VersionStats.MultiVersion++
		}
		if doc.Version > st.VersionStats.MaxVersion {
			st.VersionStats.MaxVersion = doc.Version
		}

		if st.OldestCreated == nil || doc.CreatedAt.Before(*st.OldestCreated) {
			c := doc.CreatedAt
			st.OldestCreated = &c
		}
		if st.NewestCreated == nil || doc.CreatedAt.After(*st.NewestCreated) {
			c := doc.CreatedAt
			st.NewestCreated = &c
		}
	}

	if info, err := os.Stat(s.opts.Path); err == nil {
		st.CacheSizeBytes = info.Size()
	}

	return st
}
