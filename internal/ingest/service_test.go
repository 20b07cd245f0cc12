package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWriter struct {
	insertFn func(ctx context.Context, s *models.Submission) error
	stored   []*models.Submission
}

func (m *mockWriter) InsertSubmission(ctx context.Context, s *models.Submission) error {
	if m.insertFn != nil {
		if err := m.insertFn(ctx, s); err != nil {
			return err
		}
	}
	m.stored = append(m.stored, s)
	return nil
}

type corpusCall struct {
	assignmentID, language, code, identifier string
}

type mockCorpora struct {
	calls []corpusCall
}

func (m *mockCorpora) Insert(_ context.Context, assignmentID, language, code, identifier string) error {
	m.calls = append(m.calls, corpusCall{assignmentID, language, code, identifier})
	return nil
}

func TestProcessSubmission(t *testing.T) {
	writer := &mockWriter{}
	corpora := &mockCorpora{}
	svc := NewService(writer, corpora)

	sub := &models.Submission{
		SubmissionID: "s1",
		AssignmentID: "a1",
		Language:     "py",
		Code:         "print('hi')",
	}
	require.NoError(t, svc.ProcessSubmission(context.Background(), sub))

	require.Len(t, writer.stored, 1)
	assert.Equal(t, "python", writer.stored[0].Language)
	assert.False(t, writer.stored[0].SubmittedAt.IsZero())
	assert.Equal(t, []corpusCall{{"a1", "python", "print('hi')", "s1"}}, corpora.calls)
}

func TestProcessSubmissionValidation(t *testing.T) {
	svc := NewService(&mockWriter{}, &mockCorpora{})

	tests := []struct {
		name string
		sub  *models.Submission
	}{
		{"missing submission id", &models.Submission{AssignmentID: "a1"}},
		{"missing assignment id", &models.Submission{SubmissionID: "s1"}},
		{"unknown language", &models.Submission{SubmissionID: "s1", AssignmentID: "a1", Language: "cobol"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ProcessSubmission(context.Background(), tt.sub)
			assert.ErrorIs(t, err, ErrInvalidSubmission)
		})
	}
}

func TestProcessSubmissionStoreFailureSkipsCorpus(t *testing.T) {
	writer := &mockWriter{insertFn: func(context.Context, *models.Submission) error {
		return errors.New("mongo down")
	}}
	corpora := &mockCorpora{}
	svc := NewService(writer, corpora)

	err := svc.ProcessSubmission(context.Background(), &models.Submission{SubmissionID: "s1", AssignmentID: "a1"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSubmission)
	assert.Empty(t, corpora.calls)
}
