// Package store implements the canonical document store (C1): an ordered,
// content-addressed set of documents with stable identity, versioning and
// on-disk persistence. Store itself performs no locking — callers (the
// retrieval engine) are expected to serialise access, since the store's
// document list and the derived indices built from it are one unit of
// shared state (see internal/retrieval).
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/ragd/ragd/internal/document"
)

// ErrNotFound names the not-found outcome. Store methods do not return it:
// Update and Remove report an id not present in the store with a false flag
// and a nil error, which the tool dispatcher surfaces as {success:false},
// never as an RPC error.
var ErrNotFound = errors.New("document not found")

// Options configures store behaviour, sourced from config.Config at
// construction so the store itself has no dependency on the config package.
type Options struct {
	DedupEnabled      bool
	VersioningEnabled bool
	AutoMigrateIDs    bool
	AutoSave          bool
	Path              string // documents.json path
	Log               *slog.Logger
}

// Store holds the live, ordered document list plus the lookup indices
// needed for O(1) identity resolution. Position in docs is the row index
// shared with the derived matrices in internal/index.
type Store struct {
	opts Options

	docs       []*document.Document
	byID       map[string]int // canonical id -> position
	byLegacyID map[string]int // legacy id -> position
	byHash     map[string]int // content hash -> position

	schemaVersion string
}

// fileFormat is the on-disk shape of documents.json.
type fileFormat struct {
	Documents []*document.Document `json:"documents"`
	Metadata  fileMetadata         `json:"metadata"`
}

type fileMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	LastUpdated   time.Time `json:"last_updated"`
	DocumentCount int       `json:"document_count"`
}

const currentSchemaVersion = "1.0.0"

// New returns an empty store with the given options. Call Load to populate
// it from disk.
func New(opts Options) *Store {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Store{
		opts:          opts,
		byID:          make(map[string]int),
		byLegacyID:    make(map[string]int),
		byHash:        make(map[string]int),
		schemaVersion: currentSchemaVersion,
	}
}

// Len returns the number of live documents.
func (s *Store) Len() int { return len(s.docs) }

// Docs returns the live, ordered document list. Callers must not mutate the
// slice or its elements; use the mutation methods below instead.
func (s *Store) Docs() []*document.Document { return s.docs }

// Load reads the store's JSON file from opts.Path. A missing file leaves the
// store as it is (empty on first load) and returns nil. A read or parse
// error also leaves the store as it is and returns a (non-fatal) warning
// error the caller may log; it is never treated as fatal by Load itself.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.opts.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("degraded to empty store, read %s: %w", s.opts.Path, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return fmt.Errorf("degraded to empty store, parse %s: %w", s.opts.Path, err)
	}

	s.docs = s.docs[:0]
	s.byID = make(map[string]int)
	s.byLegacyID = make(map[string]int)
	s.byHash = make(map[string]int)

	for _, doc := range ff.Documents {
		s.migrate(doc)
		s.index(doc)
	}
	return nil
}

// migrate fills in any fields missing from a persisted document (produced
// by an older schema) and, when AutoMigrateIDs is set, assigns a canonical
// id to any document whose id is not in canonical form, preserving the
// original as LegacyID.
func (s *Store) migrate(doc *document.Document) {
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Category == "" {
		doc.Category = document.DefaultCategory
	}
	if doc.ContentHash == "" {
		doc.Recompute()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Type == "" {
		doc.Type = document.Text
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
		return
	}
	if s.opts.AutoMigrateIDs {
		if _, err := uuid.Parse(doc.ID); err != nil {
			legacy := doc.ID
			doc.LegacyID = &legacy
			doc.ID = uuid.NewString()
		}
	}
}

// index registers doc at the next available position in every lookup map.
func (s *Store) index(doc *document.Document) {
	pos := len(s.docs)
	s.docs = append(s.docs, doc)
	s.byID[doc.ID] = pos
	if doc.LegacyID != nil {
		s.byLegacyID[*doc.LegacyID] = pos
	}
	if doc.ContentHash != "" {
		s.byHash[doc.ContentHash] = pos
	}
}

// reindexFrom rebuilds the position maps after a splice, for positions
// starting at `from`: every row at or after the splice point shifted down by
// one, so byID, byLegacyID and byHash must all be corrected, not just byID.
func (s *Store) reindexFrom(from int) {
	for i := from; i < len(s.docs); i++ {
		doc := s.docs[i]
		s.byID[doc.ID] = i
		if doc.LegacyID != nil {
			s.byLegacyID[*doc.LegacyID] = i
		}
		if doc.ContentHash != "" {
			s.byHash[doc.ContentHash] = i
		}
	}
}

// Save persists the store to opts.Path via write-then-rename (atomic from
// the caller's perspective). Save failures are returned to the caller,
// never swallowed.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.opts.Path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	ff := fileFormat{
		Documents: s.docs,
		Metadata: fileMetadata{
			SchemaVersion: s.schemaVersion,
			LastUpdated:   time.Now().UTC(),
			DocumentCount: len(s.docs),
		},
	}

	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling store: %w", err)
	}

	if err := atomic.WriteFile(s.opts.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", s.opts.Path, err)
	}
	return nil
}

// autoSave persists the store if AutoSave is enabled, returning any save
// error to the caller.
func (s *Store) autoSave() error {
	if !s.opts.AutoSave {
		return nil
	}
	return s.Save()
}

// Resolve maps any accepted identifier (canonical or legacy) to a document
// position, or (-1, false) if unknown.
func (s *Store) Resolve(id string) (int, bool) {
	if pos, ok := s.byID[id]; ok {
		return pos, true
	}
	if pos, ok := s.byLegacyID[id]; ok {
		return pos, true
	}
	return -1, false
}
