package plagiarism

import (
	"math"
)

// Risk levels attached to a similarity score.
const (
	RiskClean            = "clean"
	RiskSuspicious       = "suspicious"
	RiskHighlySuspicious = "highly suspicious"
	RiskNearCopy         = "near copy"
)

// DefaultReportThreshold is the score above which a pair is reported.
const DefaultReportThreshold = 25.0

// Scorer blends text and structural similarity into a 0-100 score.
type Scorer struct {
	TextWeight       float64
	StructuralWeight float64
	// MaxFeatures caps the TF-IDF vocabulary; <= 0 means unbounded.
	MaxFeatures int
}

// DefaultScorer weights lexical similarity 0.7 and structure 0.3.
var DefaultScorer = Scorer{
	TextWeight:       0.7,
	StructuralWeight: 0.3,
	MaxFeatures:      1000,
}

// Similarity scores two feature sets with DefaultScorer.
func Similarity(a, b SourceFeatures) float64 {
	return DefaultScorer.Similarity(a, b)
}

// Similarity returns a finite score in [0, 100], rounded to 4 decimals.
// The result does not depend on argument order.
func (s Scorer) Similarity(a, b SourceFeatures) float64 {
	text := s.TextSimilarity(a.NormalizedText, b.NormalizedText)
	structural := StructuralSimilarity(a, b)

	combined := s.TextWeight*text + s.StructuralWeight*structural
	score := math.Min(combined*100, 100)
	if math.IsNaN(score) || score < 0 {
		return 0
	}

	return math.Round(score*1e4) / 1e4
}

// Detector compares raw source strings of one language.
type Detector struct {
	extractor *Extractor
	scorer    Scorer
}

// NewDetector creates a detector that scores with DefaultScorer.
func NewDetector(extractor *Extractor) *Detector {
	return &Detector{extractor: extractor, scorer: DefaultScorer}
}

// Extract exposes the detector's extractor so callers can cache features.
func (d *Detector) Extract(code string) SourceFeatures {
	return d.extractor.Extract(code)
}

// Compare extracts features from both inputs and scores them.
func (d *Detector) Compare(codeA, codeB string) float64 {
	return d.scorer.Similarity(d.extractor.Extract(codeA), d.extractor.Extract(codeB))
}

// RiskLevel maps a score to a risk level. Scores at or below threshold are clean.
func RiskLevel(score, threshold float64) string {
	if score <= threshold {
		return RiskClean
	} else if score < 50 {
		return RiskSuspicious
	} else if score < 80 {
		return RiskHighlySuspicious
	}
	return RiskNearCopy
}

// IsReportable reports whether a score crosses the report threshold.
func IsReportable(score, threshold float64) bool {
	return score > threshold
}
