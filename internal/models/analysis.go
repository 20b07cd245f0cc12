package models

// Analysis is the external service's qualitative opinion on a flagged pair.
type Analysis struct {
	Analysis       string   `bson:"analysis" json:"analysis"`
	Severity       string   `bson:"severity" json:"severity"` // LOW, MEDIUM, HIGH, UNKNOWN
	// The analysis service answers with a snake_case key.
	PatternsFound  []string `bson:"patternsFound" json:"patterns_found"`
	Recommendation string   `bson:"recommendation" json:"recommendation"`
}

// AnalysisRequest is sent to the external analysis service
type AnalysisRequest struct {
	CodeA           string  `json:"codeA"`
	CodeB           string  `json:"codeB"`
	SimilarityScore float64 `json:"similarityScore"`
	Language        string  `json:"language"`
}

// AnalysisError represents an error response from the analysis service
type AnalysisError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
