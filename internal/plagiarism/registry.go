package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrMissingAssignment is returned when a corpus operation names no assignment.
var ErrMissingAssignment = errors.New("assignmentId is required")

// Loader returns the stored submissions of one assignment in one language.
type Loader interface {
	GetSubmissionsByAssignment(ctx context.Context, assignmentID, language string) ([]*models.Submission, error)
}

// CorpusRegistry owns one Corpus per assignment and language and serializes
// every access to them.
type CorpusRegistry struct {
	mu      sync.Mutex
	loader  Loader
	corpora map[string]*Corpus
}

// NewCorpusRegistry creates a registry. loader may be nil, in which case
// corpora start empty.
func NewCorpusRegistry(loader Loader) *CorpusRegistry {
	return &CorpusRegistry{
		loader:  loader,
		corpora: make(map[string]*Corpus),
	}
}

func corpusKey(assignmentID, language string) string {
	return assignmentID + ":" + language
}

// corpus returns the corpus for the key, warming it from the loader on first
// use. Callers must hold r.mu.
func (r *CorpusRegistry) corpus(ctx context.Context, assignmentID, language string) (*Corpus, error) {
	lang, err := LookupLanguage(language)
	if err != nil {
		return nil, err
	}
	key := corpusKey(assignmentID, lang.Name)
	if c, ok := r.corpora[key]; ok {
		return c, nil
	}

	c := NewCorpus(NewExtractor(lang.Normalizer, NewTreeSitterParser(lang.Grammar)))
	if r.loader != nil {
		submissions, err := r.loader.GetSubmissionsByAssignment(ctx, assignmentID, lang.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to warm corpus: %w", err)
		}
		for _, s := range submissions {
			c.Insert(s.Code, s.SubmissionID)
		}
		log.Debug().
			Str("assignmentId", assignmentID).
			Str("language", lang.Name).
			Int("entries", c.Len()).
			Msg("Corpus warmed")
	}
	r.corpora[key] = c
	return c, nil
}

// Insert adds code to the assignment's corpus.
func (r *CorpusRegistry) Insert(ctx context.Context, assignmentID, language, code, identifier string) error {
	if strings.TrimSpace(assignmentID) == "" {
		return ErrMissingAssignment
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.corpus(ctx, assignmentID, language)
	if err != nil {
		return err
	}
	c.Insert(code, identifier)
	return nil
}

// BestMatch queries the assignment's corpus.
func (r *CorpusRegistry) BestMatch(ctx context.Context, assignmentID, language, code string) (Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.corpus(ctx, assignmentID, language)
	if err != nil {
		return Match{}, err
	}
	return c.BestMatch(code), nil
}

// Len returns the number of entries in the assignment's corpus.
func (r *CorpusRegistry) Len(ctx context.Context, assignmentID, language string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.corpus(ctx, assignmentID, language)
	if err != nil {
		return 0, err
	}
	return c.Len(), nil
}

// Reset empties the assignment's corpus. The next access does not reload it.
func (r *CorpusRegistry) Reset(assignmentID, language string) error {
	lang, err := LookupLanguage(language)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := corpusKey(assignmentID, lang.Name)
	if c, ok := r.corpora[key]; ok {
		c.Reset()
		return nil
	}
	r.corpora[key] = NewCorpus(NewExtractor(lang.Normalizer, NewTreeSitterParser(lang.Grammar)))
	return nil
}
