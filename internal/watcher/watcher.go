// Package watcher implements the Watcher / Projector (C6): it observes the
// canonical document file for changes, applies a configurable predicate to
// select a subset of documents, and publishes a stable-shape projection of
// that subset to the Stream Hub (C7).
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ragd/ragd/internal/document"
	"github.com/ragd/ragd/internal/streamhub"
)

// Predicate selects which documents are included in the published
// projection. The zero value matches nothing.
type Predicate struct {
	TagSubstring    string // e.g. "a2a"
	CategoryPrefix  string // e.g. "a2a"
	SourceSubstring string // e.g. "a2aprotocol"
}

// Matches reports whether doc satisfies any of the predicate's conditions.
func (p Predicate) Matches(doc *document.Document) bool {
	if p.TagSubstring != "" {
		needle := strings.ToLower(p.TagSubstring)
		for _, t := range doc.NormalizedTags() {
			if strings.Contains(t, needle) {
				return true
			}
		}
	}
	if p.CategoryPrefix != "" && strings.HasPrefix(doc.NormalizedCategory(), strings.ToLower(p.CategoryPrefix)) {
		return true
	}
	if p.SourceSubstring != "" && strings.Contains(strings.ToLower(doc.Source), strings.ToLower(p.SourceSubstring)) {
		return true
	}
	return false
}

var fonteLine = regexp.MustCompile(`(?m)^Fonte:\s*(\S+)`)

var urlLike = regexp.MustCompile(`^https?://`)

const (
	contentTruncateLen = 500
	debounceWindow     = 150 * time.Millisecond
)

// Watcher observes path for changes, debounces by content hash, and
// publishes filtered projections to hub.
type Watcher struct {
	log        *slog.Logger
	path       string
	predicate  Predicate
	defaultURL string
	hub        *streamhub.Hub

	lastHash [32]byte
	hasHash  bool
}

// New constructs a Watcher over the canonical document file at path.
func New(log *slog.Logger, path string, predicate Predicate, defaultURL string, hub *streamhub.Hub) *Watcher {
	return &Watcher{log: log, path: path, predicate: predicate, defaultURL: defaultURL, hub: hub}
}

// Run blocks, watching path until ctx is cancelled. It publishes an initial
// snapshot immediately (so the Stream Hub has data to serve before the first
// file event arrives), then reacts to fsnotify events on the file's parent
// directory, since editors and atomic-rename writers replace the inode
// rather than writing in place.
func (w *Watcher) Run(ctx context.Context) error {
	w.tick()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := fsw.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceWindow, w.tick)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != filepath.Clean(w.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// tick reads the file once, debounces by content hash, and publishes a
// snapshot when the content actually changed.
func (w *Watcher) tick() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.log.Warn("watcher read failed", "path", w.path, "error", err)
		}
		return
	}

	hash := sha256.Sum256(data)
	if w.hasHash && hash == w.lastHash {
		return
	}
	w.lastHash = hash
	w.hasHash = true

	var ff struct {
		Documents []*document.Document `json:"documents"`
	}
	if err := json.Unmarshal(data, &ff); err != nil {
		w.log.Warn("watcher parse failed", "path", w.path, "error", err)
		return
	}

	snap := w.project(ff.Documents)
	w.hub.Publish(snap)
}

// project applies the predicate and builds the fixed projection shape.
func (w *Watcher) project(docs []*document.Document) streamhub.Snapshot {
	out := make([]streamhub.Document, 0)
	for _, doc := range docs {
		if !w.predicate.Matches(doc) {
			continue
		}
		out = append(out, streamhub.Document{
			ID:          doc.ID,
			URL:         w.resolveURL(doc),
			Title:       doc.Title,
			Content:     truncate(doc.Content, contentTruncateLen),
			FullContent: doc.Content,
			Category:    doc.Category,
			Tags:        append([]string(nil), doc.Tags...),
			Type:        string(doc.Type),
			Timestamp:   doc.UpdatedAt.UTC().Format(time.RFC3339),
			Metadata:    doc.Metadata,
		})
	}

	return streamhub.Snapshot{
		Documents: out,
		Metadata: streamhub.Metadata{
			Total:    len(out),
			LastSync: time.Now().UTC().Format(time.RFC3339),
			Source:   w.path,
		},
	}
}

// resolveURL implements the precedence: a "Fonte: <url>" prefix line in the
// content, else the source field when URL-shaped, else the configured
// default.
func (w *Watcher) resolveURL(doc *document.Document) string {
	if m := fonteLine.FindStringSubmatch(doc.Content); m != nil {
		return m[1]
	}
	if urlLike.MatchString(doc.Source) {
		return doc.Source
	}
	return w.defaultURL
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
