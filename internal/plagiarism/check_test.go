package plagiarism

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSubmissionStore struct {
	byID map[string]*models.Submission
	err  error
}

func newMemSubmissionStore(subs ...*models.Submission) *memSubmissionStore {
	s := &memSubmissionStore{byID: map[string]*models.Submission{}}
	for _, sub := range subs {
		s.byID[sub.SubmissionID] = sub
	}
	return s
}

func (s *memSubmissionStore) GetSubmission(_ context.Context, id string) (*models.Submission, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byID[id], nil
}

func (s *memSubmissionStore) GetSubmissionsByAssignment(_ context.Context, assignmentID, language string) ([]*models.Submission, error) {
	var out []*models.Submission
	for _, sub := range s.byID {
		if sub.AssignmentID == assignmentID && sub.Language == language {
			out = append(out, sub)
		}
	}
	return out, nil
}

type memReportStore struct {
	reports []*models.PlagiarismReport
}

func (r *memReportStore) InsertReport(_ context.Context, report *models.PlagiarismReport) error {
	r.reports = append(r.reports, report)
	return nil
}

type mockAnalyzer struct {
	mu       sync.Mutex
	requests []*models.AnalysisRequest
}

func (m *mockAnalyzer) AnalyzePlagiarism(_ context.Context, req *models.AnalysisRequest) *models.Analysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return &models.Analysis{Analysis: "looks copied", Severity: "HIGH", PatternsFound: []string{"renaming"}}
}

type recordingStatus struct {
	mu    sync.Mutex
	steps []models.Step
}

func (r *recordingStatus) UpdateStatus(_ context.Context, _ string, step models.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
	return nil
}

const original = "def total(values):\n    result = 0\n    for v in values:\n        result += v\n    return result\n"

func submission(id, code string) *models.Submission {
	return &models.Submission{
		SubmissionID: id,
		AssignmentID: "a1",
		StudentName:  "student " + id,
		Language:     "python",
		Code:         code,
		SubmittedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestChecker(t *testing.T, store SubmissionStore) (*Checker, *memReportStore, *mockAnalyzer, *recordingStatus) {
	t.Helper()
	pool := NewWorkerPool(context.Background(), 2)
	t.Cleanup(pool.Close)

	reports := &memReportStore{}
	analyzer := &mockAnalyzer{}
	status := &recordingStatus{}
	return NewChecker(store, reports, analyzer, status, pool, DefaultReportThreshold), reports, analyzer, status
}

func TestCheckFlagsCopies(t *testing.T) {
	store := newMemSubmissionStore(
		submission("s1", original),
		submission("s2", "# my own work\n"+original),
		submission("s3", "print('hello')"),
	)
	checker, reports, analyzer, status := newTestChecker(t, store)

	report, err := checker.Check(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, "s1", report.SubmissionID)
	assert.Equal(t, "a1", report.AssignmentID)
	assert.Equal(t, "reviewed", report.Status)
	require.Len(t, report.MatchedSources, 1)
	assert.Equal(t, "s2", report.MatchedSources[0].SubmissionID)
	assert.Greater(t, report.SimilarityScore, 90.0)
	assert.Equal(t, RiskNearCopy, report.Risk)
	assert.Equal(t, "HIGH", report.Analysis.Severity)

	assert.Len(t, reports.reports, 1)
	require.Len(t, analyzer.requests, 1)
	assert.Equal(t, original, analyzer.requests[0].CodeA)
	assert.Equal(t, []models.Step{models.StepChecking, models.StepAnalyzing, models.StepCompleted}, status.steps)
}

func TestCheckNothingFlagged(t *testing.T) {
	store := newMemSubmissionStore(
		submission("s1", original),
		submission("s3", "print('hello')"),
	)
	checker, reports, analyzer, status := newTestChecker(t, store)

	report, err := checker.Check(context.Background(), "s1")

	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Empty(t, reports.reports)
	assert.Empty(t, analyzer.requests)
	assert.Equal(t, []models.Step{models.StepChecking, models.StepCompleted}, status.steps)
}

func TestCheckOrdersMatchesByScore(t *testing.T) {
	store := newMemSubmissionStore(
		submission("s1", original),
		submission("s2", original),
		submission("s4", "def total(values):\n    result = 0\n    for v in values:\n        result += v * 2\n    return result\n"),
	)
	checker, _, _, _ := newTestChecker(t, store)

	report, err := checker.Check(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, report.MatchedSources, 2)

	assert.Equal(t, "s2", report.MatchedSources[0].SubmissionID)
	assert.Equal(t, 100.0, report.SimilarityScore)
	assert.GreaterOrEqual(t, report.MatchedSources[0].SimilarityScore, report.MatchedSources[1].SimilarityScore)
}

func TestCheckUnknownSubmission(t *testing.T) {
	checker, _, _, status := newTestChecker(t, newMemSubmissionStore())

	_, err := checker.Check(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrSubmissionNotFound)
	assert.Equal(t, models.StepFailed, status.steps[len(status.steps)-1])
}

func TestCheckStoreError(t *testing.T) {
	store := newMemSubmissionStore()
	store.err = errors.New("mongo down")
	checker, _, _, _ := newTestChecker(t, store)

	_, err := checker.Check(context.Background(), "s1")

	assert.ErrorContains(t, err, "mongo down")
}

func TestCheckWithoutAnalyzer(t *testing.T) {
	store := newMemSubmissionStore(submission("s1", original), submission("s2", original))
	pool := NewWorkerPool(context.Background(), 1)
	defer pool.Close()
	reports := &memReportStore{}

	report, err := NewChecker(store, reports, nil, nil, pool, DefaultReportThreshold).Check(context.Background(), "s1")

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Nil(t, report.Analysis)
}

func TestCheckFailsWhenComparisonsTimeOut(t *testing.T) {
	store := newMemSubmissionStore(submission("s1", original), submission("s2", original))
	pool := NewWorkerPool(context.Background(), 1)
	t.Cleanup(pool.Close)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	started := make(chan struct{})
	require.NoError(t, pool.Submit(funcJob(func(context.Context) error {
		close(started)
		<-release
		return nil
	})))
	<-started

	reports := &memReportStore{}
	analyzer := &mockAnalyzer{}
	status := &recordingStatus{}
	checker := NewChecker(store, reports, analyzer, status, pool, DefaultReportThreshold)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	report, err := checker.Check(ctx, "s1")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, report)
	assert.Empty(t, reports.reports)
	assert.Empty(t, analyzer.requests)
	assert.Equal(t, []models.Step{models.StepChecking, models.StepFailed}, status.steps)
}

func TestCheckFailsWhenPoolRejectsComparisons(t *testing.T) {
	store := newMemSubmissionStore(submission("s1", original), submission("s2", original))
	pool := NewWorkerPool(context.Background(), 1)
	pool.Close()
	reports := &memReportStore{}
	status := &recordingStatus{}

	report, err := NewChecker(store, reports, nil, status, pool, DefaultReportThreshold).Check(context.Background(), "s1")

	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.Nil(t, report)
	assert.Empty(t, reports.reports)
	assert.Equal(t, models.StepFailed, status.steps[len(status.steps)-1])
}

func TestComparisonJobSkipsAbandonedCheck(t *testing.T) {
	extractor, err := ExtractorFor("python")
	require.NoError(t, err)

	checkCtx, cancel := context.WithCancel(context.Background())
	cancel()
	results := make(chan ComparisonResult, 1)
	job := &ComparisonJob{
		Ctx:        checkCtx,
		Target:     extractor.Extract(original),
		Other:      submission("s2", original),
		Extractor:  extractor,
		Scorer:     DefaultScorer,
		ResultChan: results,
	}

	err = job.Execute(context.Background())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
