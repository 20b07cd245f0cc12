package models

import "time"

// Submission is a student's code for one assignment, as received from the
// submissions stream and stored in MongoDB.
type Submission struct {
	SubmissionID string    `bson:"submissionId" json:"submissionId"`
	AssignmentID string    `bson:"assignmentId" json:"assignmentId"`
	StudentID    string    `bson:"studentId" json:"studentId"`
	StudentName  string    `bson:"studentName" json:"studentName"`
	StudentEmail string    `bson:"studentEmail" json:"studentEmail"`
	Language     string    `bson:"language" json:"language"`
	Code         string    `bson:"code" json:"code"`
	SubmittedAt  time.Time `bson:"submittedAt" json:"submittedAt"`
}
