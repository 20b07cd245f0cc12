package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ankit071105/VedaScore/internal/metrics"
	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrSubmissionNotFound is returned when the checked submission does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionStore is the read side of the submissions repository.
type SubmissionStore interface {
	Loader
	GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error)
}

// ReportStore persists plagiarism reports.
type ReportStore interface {
	InsertReport(ctx context.Context, report *models.PlagiarismReport) error
}

// Analyzer asks the external service to explain a flagged pair. It never
// fails; unavailable analysis comes back as a placeholder.
type Analyzer interface {
	AnalyzePlagiarism(ctx context.Context, req *models.AnalysisRequest) *models.Analysis
}

// StatusUpdater records the progress of a check.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, submissionID string, step models.Step) error
}

// ComparisonResult is the score of one candidate against the checked submission.
type ComparisonResult struct {
	Other *models.Submission
	Score float64
}

// ComparisonJob scores one stored submission against precomputed features.
// Ctx is the check the job belongs to; once it is done the job is skipped.
type ComparisonJob struct {
	Ctx        context.Context
	Target     SourceFeatures
	Other      *models.Submission
	Extractor  *Extractor
	Scorer     Scorer
	ResultChan chan<- ComparisonResult
}

// Execute executes the comparison job
func (j *ComparisonJob) Execute(ctx context.Context) error {
	checkCtx := j.Ctx
	if checkCtx == nil {
		checkCtx = context.Background()
	}
	if err := checkCtx.Err(); err != nil {
		return fmt.Errorf("comparison with %s abandoned: %w", j.Other.SubmissionID, err)
	}

	start := time.Now()
	score := j.Scorer.Similarity(j.Target, j.Extractor.Extract(j.Other.Code))
	metrics.ObserveComparison(time.Since(start))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-checkCtx.Done():
		return checkCtx.Err()
	case j.ResultChan <- ComparisonResult{Other: j.Other, Score: score}:
		return nil
	}
}

// Checker compares a submission against the rest of its assignment.
type Checker struct {
	submissions SubmissionStore
	reports     ReportStore
	analyzer    Analyzer
	status      StatusUpdater
	workerPool  *WorkerPool
	threshold   float64
}

// NewChecker creates a checker. analyzer and status may be nil.
func NewChecker(
	submissions SubmissionStore,
	reports ReportStore,
	analyzer Analyzer,
	status StatusUpdater,
	workerPool *WorkerPool,
	threshold float64,
) *Checker {
	return &Checker{
		submissions: submissions,
		reports:     reports,
		analyzer:    analyzer,
		status:      status,
		workerPool:  workerPool,
		threshold:   threshold,
	}
}

// Check scores the submission against every other submission of the same
// assignment and language, and stores a report when any score crosses the
// threshold. It returns a nil report when nothing was flagged.
func (c *Checker) Check(ctx context.Context, submissionID string) (*models.PlagiarismReport, error) {
	report, err := c.check(ctx, submissionID)

	// The final step is written even when ctx timed out.
	statusCtx := context.WithoutCancel(ctx)
	if err != nil {
		c.updateStatus(statusCtx, submissionID, models.StepFailed)
		return nil, err
	}
	c.updateStatus(statusCtx, submissionID, models.StepCompleted)
	return report, nil
}

func (c *Checker) check(ctx context.Context, submissionID string) (*models.PlagiarismReport, error) {
	c.updateStatus(ctx, submissionID, models.StepChecking)

	submission, err := c.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, submissionID)
	}

	extractor, err := ExtractorFor(submission.Language)
	if err != nil {
		return nil, err
	}

	candidates, err := c.submissions.GetSubmissionsByAssignment(ctx, submission.AssignmentID, submission.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment submissions: %w", err)
	}
	others := make([]*models.Submission, 0, len(candidates))
	for _, s := range candidates {
		if s.SubmissionID != submission.SubmissionID {
			others = append(others, s)
		}
	}

	results, err := c.compareAll(ctx, extractor.Extract(submission.Code), others, extractor)
	if err != nil {
		return nil, err
	}

	flagged := make([]ComparisonResult, 0)
	for _, r := range results {
		if IsReportable(r.Score, c.threshold) {
			flagged = append(flagged, r)
		}
	}

	log.Info().
		Str("submissionId", submissionID).
		Int("compared", len(results)).
		Int("flagged", len(flagged)).
		Msg("Submission compared")

	if len(flagged) == 0 {
		return nil, nil
	}

	sort.Slice(flagged, func(i, j int) bool {
		if flagged[i].Score != flagged[j].Score {
			return flagged[i].Score > flagged[j].Score
		}
		return flagged[i].Other.SubmissionID < flagged[j].Other.SubmissionID
	})

	c.updateStatus(ctx, submissionID, models.StepAnalyzing)

	sources := make([]models.MatchedSource, 0, len(flagged))
	for _, r := range flagged {
		sources = append(sources, models.MatchedSource{
			SubmissionID:    r.Other.SubmissionID,
			StudentName:     r.Other.StudentName,
			StudentEmail:    r.Other.StudentEmail,
			SimilarityScore: r.Score,
			SubmittedAt:     r.Other.SubmittedAt,
			Analysis:        c.analyze(ctx, submission, r),
		})
	}

	highest := sources[0]
	report := &models.PlagiarismReport{
		SubmissionID:    submission.SubmissionID,
		AssignmentID:    submission.AssignmentID,
		SimilarityScore: highest.SimilarityScore,
		Risk:            RiskLevel(highest.SimilarityScore, c.threshold),
		MatchedSources:  sources,
		Analysis:        highest.Analysis,
		Status:          "reviewed",
	}

	if err := c.reports.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}
	metrics.RecordReport(report.Risk)

	return report, nil
}

// compareAll fans the comparisons out over the worker pool. It succeeds only
// when every candidate was scored.
func (c *Checker) compareAll(
	ctx context.Context,
	target SourceFeatures,
	others []*models.Submission,
	extractor *Extractor,
) ([]ComparisonResult, error) {
	resultChan := make(chan ComparisonResult, len(others))

	expected := 0
	for _, other := range others {
		job := &ComparisonJob{
			Ctx:        ctx,
			Target:     target,
			Other:      other,
			Extractor:  extractor,
			Scorer:     DefaultScorer,
			ResultChan: resultChan,
		}
		if err := c.workerPool.SubmitContext(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to queue comparison with %s: %w", other.SubmissionID, err)
		}
		expected++
	}

	results := make([]ComparisonResult, 0, expected)
	for len(results) < expected {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("comparison interrupted after %d of %d candidates: %w", len(results), expected, ctx.Err())
		case r := <-resultChan:
			results = append(results, r)
		}
	}
	return results, nil
}

func (c *Checker) analyze(ctx context.Context, submission *models.Submission, r ComparisonResult) *models.Analysis {
	if c.analyzer == nil {
		return nil
	}
	return c.analyzer.AnalyzePlagiarism(ctx, &models.AnalysisRequest{
		CodeA:           submission.Code,
		CodeB:           r.Other.Code,
		SimilarityScore: r.Score,
		Language:        submission.Language,
	})
}

func (c *Checker) updateStatus(ctx context.Context, submissionID string, step models.Step) {
	if c.status == nil {
		return
	}
	if err := c.status.UpdateStatus(ctx, submissionID, step); err != nil {
		log.Warn().Err(err).Str("submissionId", submissionID).Str("step", string(step)).Msg("Failed to update status")
	}
}
