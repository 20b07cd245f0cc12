package models

import (
	"time"
)

type Step string

const (
	StepIdle      Step = "idle"
	StepQueued    Step = "queued"
	StepChecking  Step = "checking"
	StepAnalyzing Step = "analyzing"
	StepCompleted Step = "completed"
	StepFailed    Step = "failed"
)

// MatchedSource is one other submission whose score crossed the threshold
type MatchedSource struct {
	SubmissionID    string    `bson:"submissionId" json:"submissionId"`
	StudentName     string    `bson:"studentName" json:"studentName"`
	StudentEmail    string    `bson:"studentEmail" json:"studentEmail"`
	SimilarityScore float64   `bson:"similarityScore" json:"similarityScore"`
	SubmittedAt     time.Time `bson:"submittedAt" json:"submittedAt"`
	Analysis        *Analysis `bson:"analysis,omitempty" json:"analysis,omitempty"`
}

// PlagiarismReport is stored when at least one match crosses the threshold
type PlagiarismReport struct {
	SubmissionID    string          `bson:"submissionId" json:"submissionId"`
	AssignmentID    string          `bson:"assignmentId" json:"assignmentId"`
	SimilarityScore float64         `bson:"similarityScore" json:"similarityScore"`
	Risk            string          `bson:"risk" json:"risk"` // clean, suspicious, highly suspicious, near copy
	MatchedSources  []MatchedSource `bson:"matchedSources" json:"matchedSources"`
	Analysis        *Analysis       `bson:"analysis,omitempty" json:"analysis,omitempty"`
	Status          string          `bson:"status" json:"status"` // reviewed, pending
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
}

// CompareRequest represents a request to score two code strings
type CompareRequest struct {
	CodeA    string `json:"codeA"`
	CodeB    string `json:"codeB"`
	Language string `json:"language"`
}

// CompareResponse represents the response from the similarity endpoint
type CompareResponse struct {
	Score      float64 `json:"score"`
	Risk       string  `json:"risk"`
	Reportable bool    `json:"reportable"`
}

// CodeRequest carries a single code string
type CodeRequest struct {
	Code       string `json:"code" binding:"required"`
	Identifier string `json:"identifier"`
	Language   string `json:"language"`
}

// CheckResponse represents the response from the check endpoint
type CheckResponse struct {
	Step         Step   `json:"step"`
	SubmissionID string `json:"submissionId"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
