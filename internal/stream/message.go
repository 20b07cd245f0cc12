package stream

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ankit071105/VedaScore/internal/models"
)

// StreamMessage is a decoded Redis stream entry.
type StreamMessage struct {
	ID     string
	Fields map[string]string
}

// ParseSubmission builds a submission from the flat fields of a stream entry.
// A "payload" field holding the JSON encoded submission is accepted instead.
func ParseSubmission(msg *StreamMessage) (*models.Submission, error) {
	if payload, ok := msg.Fields["payload"]; ok {
		var submission models.Submission
		if err := json.Unmarshal([]byte(payload), &submission); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		if err := requireIDs(&submission); err != nil {
			return nil, err
		}
		return &submission, nil
	}

	submittedAt, err := parseTime(msg.Fields["submittedAt"])
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		SubmissionID: msg.Fields["submissionId"],
		AssignmentID: msg.Fields["assignmentId"],
		StudentID:    msg.Fields["studentId"],
		StudentName:  msg.Fields["studentName"],
		StudentEmail: msg.Fields["studentEmail"],
		Language:     msg.Fields["language"],
		Code:         msg.Fields["code"],
		SubmittedAt:  submittedAt,
	}
	if err := requireIDs(submission); err != nil {
		return nil, err
	}
	return submission, nil
}

func requireIDs(s *models.Submission) error {
	if s.SubmissionID == "" {
		return fmt.Errorf("missing submissionId")
	}
	if s.AssignmentID == "" {
		return fmt.Errorf("missing assignmentId")
	}
	return nil
}

// parseTime accepts RFC3339 or unix milliseconds. Empty means unknown.
func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid submittedAt %q: %w", v, err)
	}
	return t, nil
}
