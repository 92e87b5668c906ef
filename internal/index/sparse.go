package index

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Sparse is a from-scratch TF-IDF index: a fitted vocabulary capped at
// maxFeatures terms (by corpus document frequency), English stop-words
// removed, rows L2-normalized. There is no general-purpose TF-IDF module
// in the example pack's ecosystem survey, so this tier is implemented on
// the standard library (see DESIGN.md).
type Sparse struct {
	maxFeatures int
	threshold   float64

	vocab    map[string]int // term -> column index
	idf      []float64      // idf per column
	rows     [][]float64    // one sparse-as-dense row per document (len(vocab) wide)
}

// NewSparse constructs an empty sparse index.
func NewSparse(maxFeatures int, threshold float64) *Sparse {
	if maxFeatures <= 0 {
		maxFeatures = 1000
	}
	return &Sparse{maxFeatures: maxFeatures, threshold: threshold}
}

func (s *Sparse) Name() string    { return "sparse:tfidf" }
func (s *Sparse) Available() bool { return len(s.vocab) > 0 && len(s.rows) > 0 }
func (s *Sparse) Len() int        { return len(s.rows) }

// Rebuild fits the vectorizer fresh from the corpus (title‖content per
// document, in position order) and transforms every document.
func (s *Sparse) Rebuild(texts []string) {
	docTokens := make([][]string, len(texts))
	df := map[string]int{}
	for i, t := range texts {
		toks := tokenizeFiltered(t)
		docTokens[i] = toks
		seen := map[string]bool{}
		for _, tok := range toks {
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	type termDF struct {
		term string
		df   int
	}
	ranked := make([]termDF, 0, len(df))
	for term, c := range df {
		ranked = append(ranked, termDF{term, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].df != ranked[j].df {
			return ranked[i].df > ranked[j].df
		}
		return ranked[i].term < ranked[j].term
	})
	if len(ranked) > s.maxFeatures {
		ranked = ranked[:s.maxFeatures]
	}

	vocab := make(map[string]int, len(ranked))
	idf := make([]float64, len(ranked))
	n := float64(len(texts))
	for i, td := range ranked {
		vocab[td.term] = i
		idf[i] = math.Log((n+1)/(float64(td.df)+1)) + 1
	}

	rows := make([][]float64, len(texts))
	for i, toks := range docTokens {
		rows[i] = s.transformTokens(toks, vocab, idf)
	}

	s.vocab = vocab
	s.idf = idf
	s.rows = rows
}

// Insert transforms and appends a single row against the current
// vocabulary without refitting it. The retrieval engine does not call this
// for live corpus changes (it refits via Rebuild instead, since a frozen
// vocabulary silently can't match newly-introduced terms); Insert remains a
// low-level primitive for callers that accept a stale vocabulary.
func (s *Sparse) Insert(text string) {
	row := s.transformTokens(tokenizeFiltered(text), s.vocab, s.idf)
	s.rows = append(s.rows, row)
}

// Replace recomputes the row at pos against the current (unrefit)
// vocabulary; see the Insert comment on why the engine prefers Rebuild.
func (s *Sparse) Replace(pos int, text string) {
	s.rows[pos] = s.transformTokens(tokenizeFiltered(text), s.vocab, s.idf)
}

// RemoveAt deletes row pos by contiguous deletion.
func (s *Sparse) RemoveAt(pos int) {
	s.rows = append(s.rows[:pos], s.rows[pos+1:]...)
}

func (s *Sparse) transformTokens(toks []string, vocab map[string]int, idf []float64) []float64 {
	row := make([]float64, len(vocab))
	for _, tok := range toks {
		if col, ok := vocab[tok]; ok {
			row[col]++
		}
	}
	for col, tf := range row {
		if tf > 0 {
			row[col] = tf * idf[col]
		}
	}
	normalizeL2(row)
	return row
}

// Score transforms query through the fitted vectorizer and returns the top
// `limit` rows above the sparse threshold.
func (s *Sparse) Score(query string, limit int) ([]Scored, error) {
	if !s.Available() || limit <= 0 || query == "" {
		return nil, nil
	}
	q := s.transformTokens(tokenizeFiltered(query), s.vocab, s.idf)

	scored := make([]Scored, 0, len(s.rows))
	for i, row := range s.rows {
		sim := dotProduct(q, row)
		if sim > s.threshold {
			scored = append(scored, Scored{Position: i, Score: sim})
		}
	}
	sortScoredStable(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func dotProduct(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

func normalizeL2(row []float64) {
	var sumSq float64
	for _, v := range row {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range row {
		row[i] /= norm
	}
}

// englishStopWords is a short, standard list (matching scikit-learn's
// default "english" stop word behaviour closely enough for this corpus
// scale) filtered out before vocabulary fitting.
var englishStopWords = buildStopWordSet([]string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been",
	"before", "being", "below", "between", "both", "but", "by", "can",
	"cannot", "could", "did", "do", "does", "doing", "down", "during",
	"each", "few", "for", "from", "further", "had", "has", "have", "having",
	"he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
	"i", "if", "in", "into", "is", "it", "its", "itself", "me", "more",
	"most", "my", "myself", "no", "nor", "not", "of", "off", "on", "once",
	"only", "or", "other", "ought", "our", "ours", "ourselves", "out",
	"over", "own", "same", "she", "should", "so", "some", "such", "than",
	"that", "the", "their", "theirs", "them", "themselves", "then", "there",
	"these", "they", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "was", "we", "were", "what", "when", "where",
	"which", "while", "who", "whom", "why", "with", "would", "you", "your",
	"yours", "yourself", "yourselves",
})

func buildStopWordSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

func tokenizeFiltered(s string) []string {
	raw := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := raw[:0]
	for _, tok := range raw {
		if len(tok) < 2 || englishStopWords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}
