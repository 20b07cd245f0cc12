package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/ankit071105/VedaScore/internal/plagiarism"
	"github.com/rs/zerolog/log"
)

// ErrInvalidSubmission wraps validation failures. Retrying cannot fix them.
var ErrInvalidSubmission = errors.New("invalid submission")

type SubmissionWriter interface {
	InsertSubmission(ctx context.Context, submission *models.Submission) error
}

type CorpusInserter interface {
	Insert(ctx context.Context, assignmentID, language, code, identifier string) error
}

type Service struct {
	submissions SubmissionWriter
	corpora     CorpusInserter
}

func NewService(submissions SubmissionWriter, corpora CorpusInserter) *Service {
	return &Service{
		submissions: submissions,
		corpora:     corpora,
	}
}

// ProcessSubmission stores the submission and adds it to its assignment's
// corpus. The language is canonicalized first so lookups by alias agree.
func (s *Service) ProcessSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.SubmissionID == "" {
		return fmt.Errorf("%w: submissionId is required", ErrInvalidSubmission)
	}
	if submission.AssignmentID == "" {
		return fmt.Errorf("%w: assignmentId is required", ErrInvalidSubmission)
	}

	lang, err := plagiarism.LookupLanguage(submission.Language)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	submission.Language = lang.Name
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}

	if err := s.submissions.InsertSubmission(ctx, submission); err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}

	if err := s.corpora.Insert(ctx, submission.AssignmentID, lang.Name, submission.Code, submission.SubmissionID); err != nil {
		return fmt.Errorf("failed to index submission: %w", err)
	}

	log.Info().
		Str("submissionId", submission.SubmissionID).
		Str("assignmentId", submission.AssignmentID).
		Str("language", lang.Name).
		Msg("Submission ingested")

	return nil
}
