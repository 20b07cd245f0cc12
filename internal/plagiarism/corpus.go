package plagiarism

import (
	"crypto/sha256"
	"encoding/hex"
)

// CorpusEntry is one stored submission.
type CorpusEntry struct {
	ContentHash string
	Identifier  string
	Code        string
	Features    SourceFeatures
}

// Match is the result of a BestMatch query. Found is false, and every other
// field zero, when the corpus is empty.
type Match struct {
	Score       float64 `json:"score"`
	Identifier  string  `json:"identifier,omitempty"`
	MatchedCode string  `json:"matchedCode,omitempty"`
	Found       bool    `json:"found"`
}

// Corpus is an in-memory set of previously seen submissions keyed by the
// hash of their raw text. It does no locking: callers sharing a Corpus
// between goroutines must serialize access themselves.
type Corpus struct {
	extractor *Extractor
	scorer    Scorer
	entries   map[string]*CorpusEntry
	order     []string
}

// NewCorpus creates an empty corpus.
func NewCorpus(extractor *Extractor) *Corpus {
	return &Corpus{
		extractor: extractor,
		scorer:    DefaultScorer,
		entries:   make(map[string]*CorpusEntry),
	}
}

// Insert stores code under identifier. Byte-identical code replaces the
// previous entry, so only the most recent identifier is kept for it.
func (c *Corpus) Insert(code, identifier string) {
	hash := ContentHash(code)
	if _, exists := c.entries[hash]; !exists {
		c.order = append(c.order, hash)
	}
	c.entries[hash] = &CorpusEntry{
		ContentHash: hash,
		Identifier:  identifier,
		Code:        code,
		Features:    c.extractor.Extract(code),
	}
}

// BestMatch scores code against every entry and returns the highest score.
// Ties go to the entry inserted first.
func (c *Corpus) BestMatch(code string) Match {
	if len(c.order) == 0 {
		return Match{}
	}

	features := c.extractor.Extract(code)
	best := Match{Score: -1}
	for _, hash := range c.order {
		entry := c.entries[hash]
		score := c.scorer.Similarity(features, entry.Features)
		if score > best.Score {
			best = Match{
				Score:       score,
				Identifier:  entry.Identifier,
				MatchedCode: entry.Code,
				Found:       true,
			}
		}
	}

	return best
}

// Entries returns the stored entries in insertion order.
func (c *Corpus) Entries() []CorpusEntry {
	out := make([]CorpusEntry, 0, len(c.order))
	for _, hash := range c.order {
		out = append(out, *c.entries[hash])
	}
	return out
}

// Len returns the number of distinct stored texts.
func (c *Corpus) Len() int {
	return len(c.order)
}

// Reset drops every entry.
func (c *Corpus) Reset() {
	c.entries = make(map[string]*CorpusEntry)
	c.order = nil
}

// ContentHash computes the SHA256 hex digest of raw source.
func ContentHash(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])
}
