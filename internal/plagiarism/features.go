package plagiarism

import (
	"strings"
	"unicode/utf8"
)

// SourceFeatures is everything the scorer needs to know about one
// submission. It is never mutated after Extract returns.
type SourceFeatures struct {
	NormalizedText string         `json:"normalizedText"`
	LineCount      int            `json:"lineCount"`
	CharCount      int            `json:"charCount"`
	WordCount      int            `json:"wordCount"`
	NodeHistogram  map[string]int `json:"nodeHistogram"`
}

// Extractor derives SourceFeatures for one language.
type Extractor struct {
	normalizer *Normalizer
	parser     Parser
}

// NewExtractor builds an extractor from a normalizer and a parser.
func NewExtractor(normalizer *Normalizer, parser Parser) *Extractor {
	if normalizer == nil {
		normalizer = PythonNormalizer
	}
	return &Extractor{normalizer: normalizer, parser: parser}
}

// ExtractorFor returns a tree-sitter backed extractor for a language name.
func ExtractorFor(language string) (*Extractor, error) {
	l, err := LookupLanguage(language)
	if err != nil {
		return nil, err
	}
	return NewExtractor(l.Normalizer, NewTreeSitterParser(l.Grammar)), nil
}

// Extract computes the features of source. Size metrics come from the
// normalized text; the node histogram comes from the original text and is
// empty when the source does not parse.
func (e *Extractor) Extract(source string) SourceFeatures {
	normalized := e.normalizer.Normalize(source)

	features := SourceFeatures{
		NormalizedText: normalized,
		LineCount:      countLines(normalized),
		CharCount:      utf8.RuneCountInString(normalized),
		WordCount:      len(strings.Fields(normalized)),
		NodeHistogram:  make(map[string]int),
	}

	if e.parser == nil {
		return features
	}

	result := e.parser.Parse(source)
	if !result.OK {
		return features
	}
	for _, kind := range result.NodeKinds {
		features.NodeHistogram[kind]++
	}

	return features
}

// countLines counts newline-delimited segments; empty text has none.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
