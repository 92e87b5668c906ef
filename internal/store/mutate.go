package store

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragd/ragd/internal/document"
)

// AddInput carries the fields accepted by Add.
type AddInput struct {
	ID       string // optional legacy id to preserve
	Title    string
	Content  string
	Type     string
	Source   string
	Category string
	Tags     []string
	Metadata map[string]any
}

// AddResult reports the outcome of Add, distinguishing a fresh insert from
// a dedup-path update so callers (the tool dispatcher) can surface
// version>1 as the signal of deduplication, per spec.
type AddResult struct {
	Doc         *document.Document
	Deduplicated bool
	Position    int
}

// Add inserts a new document, or — when DedupEnabled and an existing
// document shares the same content hash — updates and returns the existing
// document per the dedup policy (union tags, bump version, refresh
// updated_at). Hash wins over any legacy-id match: if in.ID names a
// document other than the hash match, or the hash match already carries a
// different legacy id, the conflict is logged as a warning naming both ids
// and in.ID is preserved as the hash-matched document's LegacyID.
func (s *Store) Add(in AddInput) (AddResult, error) {
	now := time.Now().UTC()
	category := in.Category
	if category == "" {
		category = document.DefaultCategory
	}

	hash := document.ContentHash(in.Title, in.Content)

	if s.opts.DedupEnabled {
		if pos, ok := s.byHash[hash]; ok {
			existing := s.docs[pos]
			existing.UpdatedAt = now
			if s.opts.VersioningEnabled {
				existing.Version++
			}
			existing.Tags = document.UnionTags(existing.Tags, in.Tags)
			s.reconcileLegacyID(existing, pos, in.ID)
			if err := s.autoSave(); err != nil {
				return AddResult{}, err
			}
			return AddResult{Doc: existing, Deduplicated: true, Position: pos}, nil
		}
	}

	doc := &document.Document{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Content:     in.Content,
		Type:        document.ValidType(in.Type),
		Source:      in.Source,
		Category:    category,
		Tags:        append([]string(nil), in.Tags...),
		ContentHash: hash,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
		Metadata:    in.Metadata,
	}
	if in.ID != "" {
		legacy := in.ID
		doc.LegacyID = &legacy
	}

	s.index(doc)
	if err := s.autoSave(); err != nil {
		return AddResult{}, err
	}
	return AddResult{Doc: doc, Deduplicated: false, Position: len(s.docs) - 1}, nil
}

// reconcileLegacyID resolves a conflict between a hash-matched dedup target
// and a caller-supplied legacy id, per the "hash wins" open question
// resolution: existing keeps its position, but newID is preserved on it so
// future legacy-id lookups for newID still resolve. Logs a warning when
// newID already named a different document, or when existing already
// carried a different legacy id that newID replaces.
func (s *Store) reconcileLegacyID(existing *document.Document, pos int, newID string) {
	if newID == "" || (existing.LegacyID != nil && *existing.LegacyID == newID) {
		return
	}

	if conflictPos, ok := s.Resolve(newID); ok && conflictPos != pos {
		s.opts.Log.Warn("hash match won over legacy id on dedup",
			"hash_matched_id", existing.ID,
			"legacy_id", newID,
			"discarded_position", conflictPos,
		)
	} else if existing.LegacyID != nil {
		s.opts.Log.Warn("hash match already carried a different legacy id",
			"hash_matched_id", existing.ID,
			"previous_legacy_id", *existing.LegacyID,
			"incoming_legacy_id", newID,
		)
	}

	if existing.LegacyID != nil {
		delete(s.byLegacyID, *existing.LegacyID)
	}
	legacy := newID
	existing.LegacyID = &legacy
	s.byLegacyID[newID] = pos
}

// UpdatePatch carries an optional subset of mutable fields. Nil means
// "leave unchanged".
type UpdatePatch struct {
	Title    *string
	Content  *string
	Tags     *[]string
	Category *string
	Metadata map[string]any // merged, not replaced; nil means unchanged
}

// Update applies patch to the document identified by id (canonical or
// legacy). Returns (position, true, nil) on success, (-1, false, nil) if id
// is unknown, or a non-nil error if the subsequent auto-save failed (the
// in-memory mutation still applies in that case). Recomputes the content
// hash whenever Title or Content changes, and then also bumps Version when
// VersioningEnabled is set.
func (s *Store) Update(id string, patch UpdatePatch) (int, bool, error) {
	pos, ok := s.Resolve(id)
	if !ok {
		return -1, false, nil
	}
	doc := s.docs[pos]

	contentChanged := false
	if patch.Title != nil && *patch.Title != doc.Title {
		doc.Title = *patch.Title
		contentChanged = true
	}
	if patch.Content != nil && *patch.Content != doc.Content {
		doc.Content = *patch.Content
		contentChanged = true
	}
	if patch.Tags != nil {
		doc.Tags = append([]string(nil), (*patch.Tags)...)
	}
	if patch.Category != nil && *patch.Category != "" {
		doc.Category = *patch.Category
	}
	if patch.Metadata != nil {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any, len(patch.Metadata))
		}
		for k, v := range patch.Metadata {
			doc.Metadata[k] = v
		}
	}

	if contentChanged {
		oldHash := doc.ContentHash
		doc.Recompute()
		delete(s.byHash, oldHash)
		s.byHash[doc.ContentHash] = pos
		if s.opts.VersioningEnabled {
			doc.Version++
		}
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := s.autoSave(); err != nil {
		return pos, true, err
	}
	return pos, true, nil
}

// Remove deletes the document identified by id (canonical or legacy),
// dropping it from every lookup index and compacting positions so row i of
// the derived matrices keeps matching the i-th live document.
func (s *Store) Remove(id string) (bool, error) {
	pos, ok := s.Resolve(id)
	if !ok {
		return false, nil
	}
	doc := s.docs[pos]

	delete(s.byID, doc.ID)
	if doc.LegacyID != nil {
		delete(s.byLegacyID, *doc.LegacyID)
	}
	if doc.ContentHash != "" {
		delete(s.byHash, doc.ContentHash)
	}

	s.docs = append(s.docs[:pos], s.docs[pos+1:]...)
	s.reindexFrom(pos)

	if err := s.autoSave(); err != nil {
		return true, err
	}
	return true, nil
}

// Get returns a deep copy of the document identified by id, or nil if
// unknown.
func (s *Store) Get(id string) *document.Document {
	pos, ok := s.Resolve(id)
	if !ok {
		return nil
	}
	return s.docs[pos].Clone()
}

// Position returns the row index for id, mirroring index alignment.
func (s *Store) Position(id string) (int, bool) {
	return s.Resolve(id)
}

// ListFilter narrows List results.
type ListFilter struct {
	Category string
	Tags     []string
	Source   string
}

// List returns summaries for every live document matching filter, in
// insertion order.
func (s *Store) List(filter ListFilter) []document.Summary {
	wantCategory := strings.ToLower(filter.Category)
	wantSource := strings.ToLower(filter.Source)
	wantTags := make(map[string]bool, len(filter.Tags))
	for _, t := range filter.Tags {
		wantTags[strings.ToLower(t)] = true
	}

	out := make([]document.Summary, 0, len(s.docs))
	for _, doc := range s.docs {
		if wantCategory != "" && doc.NormalizedCategory() != wantCategory {
			continue
		}
		if wantSource != "" && !strings.Contains(strings.ToLower(doc.Source), wantSource) {
			continue
		}
		if len(wantTags) > 0 {
			matched := false
			for _, t := range doc.NormalizedTags() {
				if wantTags[t] {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, doc.ToSummary())
	}
	return out
}
