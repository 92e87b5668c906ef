// Package document defines the Document type shared by the store, the
// derived indices, and the retrieval engine.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Type enumerates the recognised document kinds. Unknown values fold to
// Text on ingest, per spec invariant.
type Type string

const (
	Text          Type = "text"
	Webpage       Type = "webpage"
	Documentation Type = "documentation"
	Code          Type = "code"
	Markdown      Type = "markdown"
	Chat          Type = "chat"
)

// ValidType returns a normalised Type, folding anything unrecognised to Text.
func ValidType(t string) Type {
	switch Type(t) {
	case Text, Webpage, Documentation, Code, Markdown, Chat:
		return Type(t)
	default:
		return Text
	}
}

// DefaultCategory is applied to documents ingested without an explicit category.
const DefaultCategory = "uncategorized"

// Document is the atomic unit of storage and retrieval.
type Document struct {
	ID          string         `json:"id"`
	LegacyID    *string        `json:"legacy_id,omitempty"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Type        Type           `json:"type"`
	Source      string         `json:"source"`
	Category    string         `json:"category"`
	Tags        []string       `json:"tags"`
	ContentHash string         `json:"content_hash"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Version     int            `json:"version"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ContentHash computes the full SHA-256 hex digest over title‖content, used
// for deduplication.
func ContentHash(title, content string) string {
	sum := sha256.Sum256([]byte(title + content))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 16 hex characters of a full content hash, a
// short display form. Search results and stats carry the full hash.
func ShortHash(fullHash string) string {
	if len(fullHash) <= 16 {
		return fullHash
	}
	return fullHash[:16]
}

// Recompute refreshes ContentHash from the current Title/Content.
func (d *Document) Recompute() {
	d.ContentHash = ContentHash(d.Title, d.Content)
}

// NormalizedTags returns the document's tags lower-cased, for index lookups.
func (d *Document) NormalizedTags() []string {
	out := make([]string, len(d.Tags))
	for i, t := range d.Tags {
		out[i] = strings.ToLower(t)
	}
	return out
}

// NormalizedCategory returns the document's category lower-cased.
func (d *Document) NormalizedCategory() string {
	return strings.ToLower(d.Category)
}

// UnionTags merges two tag sets, case-insensitively, preserving the first
// seen casing of each tag (existing tags win). The result is sorted
// byte-wise, so upper-case tags sort before lower-case ones.
func UnionTags(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	for _, t := range incoming {
		key := strings.ToLower(t)
		if !seen[key] {
			seen[key] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// EmbeddingText is the text submitted to the embedding function: the
// concatenation of title and content.
func (d *Document) EmbeddingText() string {
	return d.Title + " " + d.Content
}

// Summary is the lightweight projection returned by `list`.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      Type      `json:"type"`
	Source    string    `json:"source"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToSummary projects a Document down to its Summary.
func (d *Document) ToSummary() Summary {
	return Summary{
		ID:        d.ID,
		Title:     d.Title,
		Type:      d.Type,
		Source:    d.Source,
		Category:  d.Category,
		Tags:      append([]string(nil), d.Tags...),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Clone returns a deep copy of the document, so callers holding a snapshot
// never observe subsequent in-place mutation by the store.
func (d *Document) Clone() *Document {
	cp := *d
	cp.Tags = append([]string(nil), d.Tags...)
	if d.Metadata != nil {
		cp.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			cp.Metadata[k] = v
		}
	}
	if d.LegacyID != nil {
		v := *d.LegacyID
		cp.LegacyID = &v
	}
	return &cp
}
