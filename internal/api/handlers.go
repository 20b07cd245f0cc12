package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ankit071105/VedaScore/internal/config"
	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/ankit071105/VedaScore/internal/plagiarism"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CorpusStore is the per-assignment corpus registry.
type CorpusStore interface {
	Insert(ctx context.Context, assignmentID, language, code, identifier string) error
	BestMatch(ctx context.Context, assignmentID, language, code string) (plagiarism.Match, error)
	Reset(assignmentID, language string) error
}

type CheckRunner interface {
	Check(ctx context.Context, submissionID string) (*models.PlagiarismReport, error)
}

type StatusStore interface {
	UpdateStatus(ctx context.Context, submissionID string, step models.Step) error
	GetStatus(ctx context.Context, submissionID string) (models.Step, error)
}

type SubmissionReader interface {
	GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error)
}

type ReportReader interface {
	ListReports(ctx context.Context, assignmentID string, limit int64) ([]*models.PlagiarismReport, error)
	GetLatestReportBySubmission(ctx context.Context, submissionID string) (*models.PlagiarismReport, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	cfg          *config.Config
	corpora      CorpusStore
	checker      CheckRunner
	status       StatusStore
	submissions  SubmissionReader
	reports      ReportReader
	checkSem     chan struct{} // Semaphore for bounded concurrency
	checkTimeout time.Duration
}

// NewHandler creates a new handler
func NewHandler(
	cfg *config.Config,
	corpora CorpusStore,
	checker CheckRunner,
	status StatusStore,
	submissions SubmissionReader,
	reports ReportReader,
) *Handler {
	return &Handler{
		cfg:          cfg,
		corpora:      corpora,
		checker:      checker,
		status:       status,
		submissions:  submissions,
		reports:      reports,
		checkSem:     make(chan struct{}, cfg.MaxConcurrentChecks),
		checkTimeout: cfg.CheckTimeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// Similarity scores two code strings against each other.
func (h *Handler) Similarity(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	extractor, err := plagiarism.ExtractorFor(req.Language)
	if err != nil {
		badRequest(c, err.Error(), "UNSUPPORTED_LANGUAGE")
		return
	}

	score := plagiarism.NewDetector(extractor).Compare(req.CodeA, req.CodeB)
	c.JSON(http.StatusOK, models.CompareResponse{
		Score:      score,
		Risk:       plagiarism.RiskLevel(score, h.cfg.ReportThreshold),
		Reportable: plagiarism.IsReportable(score, h.cfg.ReportThreshold),
	})
}

func (h *Handler) Features(c *gin.Context) {
	var req models.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	extractor, err := plagiarism.ExtractorFor(req.Language)
	if err != nil {
		badRequest(c, err.Error(), "UNSUPPORTED_LANGUAGE")
		return
	}

	c.JSON(http.StatusOK, extractor.Extract(req.Code))
}

func (h *Handler) InsertCorpus(c *gin.Context) {
	var req models.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	assignmentID := c.Param("assignmentId")
	if err := h.corpora.Insert(c.Request.Context(), assignmentID, req.Language, req.Code, req.Identifier); err != nil {
		h.corpusError(c, err, assignmentID)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"assignmentId": assignmentID,
		"contentHash":  plagiarism.ContentHash(req.Code),
	})
}

func (h *Handler) MatchCorpus(c *gin.Context) {
	var req models.CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	assignmentID := c.Param("assignmentId")
	match, err := h.corpora.BestMatch(c.Request.Context(), assignmentID, req.Language, req.Code)
	if err != nil {
		h.corpusError(c, err, assignmentID)
		return
	}

	c.JSON(http.StatusOK, match)
}

func (h *Handler) ResetCorpus(c *gin.Context) {
	assignmentID := c.Param("assignmentId")
	if err := h.corpora.Reset(assignmentID, c.Query("language")); err != nil {
		h.corpusError(c, err, assignmentID)
		return
	}

	c.Status(http.StatusNoContent)
}

// Check queues a plagiarism check for a stored submission and returns 202
// without waiting for it.
func (h *Handler) Check(c *gin.Context) {
	submissionID := c.Param("submissionId")
	ctx := c.Request.Context()

	submission, err := h.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		log.Error().Err(err).Str("submissionId", submissionID).Msg("Failed to load submission")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load submission",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if submission == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "Submission not found",
			Code:  "SUBMISSION_NOT_FOUND",
		})
		return
	}

	// Acquire semaphore (bounded concurrency)
	select {
	case h.checkSem <- struct{}{}:
	case <-ctx.Done():
		c.JSON(http.StatusRequestTimeout, models.ErrorResponse{
			Error: "Request cancelled",
			Code:  "REQUEST_TIMEOUT",
		})
		return
	}

	if err := h.status.UpdateStatus(ctx, submissionID, models.StepQueued); err != nil {
		log.Warn().Err(err).Str("submissionId", submissionID).Msg("Failed to update queued status")
	}

	c.JSON(http.StatusAccepted, models.CheckResponse{
		Step:         models.StepQueued,
		SubmissionID: submissionID,
	})

	go h.runCheck(submissionID)
}

func (h *Handler) runCheck(submissionID string) {
	defer func() { <-h.checkSem }() // Release semaphore

	ctx, cancel := context.WithTimeout(context.Background(), h.checkTimeout)
	defer cancel()

	report, err := h.checker.Check(ctx, submissionID)
	if err != nil {
		log.Error().Err(err).Str("submissionId", submissionID).Msg("Check failed")
		return
	}

	if report == nil {
		log.Debug().Str("submissionId", submissionID).Msg("Check completed, nothing flagged")
		return
	}
	log.Info().
		Str("submissionId", submissionID).
		Float64("score", report.SimilarityScore).
		Str("risk", report.Risk).
		Msg("Check completed, report stored")
}

func (h *Handler) Status(c *gin.Context) {
	submissionID := c.Param("submissionId")

	step, err := h.status.GetStatus(c.Request.Context(), submissionID)
	if err != nil {
		log.Error().Err(err).Str("submissionId", submissionID).Msg("Failed to read status")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to read status",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, models.CheckResponse{
		Step:         step,
		SubmissionID: submissionID,
	})
}

// Report returns the most recent report stored for a submission.
func (h *Handler) Report(c *gin.Context) {
	submissionID := c.Param("submissionId")

	report, err := h.reports.GetLatestReportBySubmission(c.Request.Context(), submissionID)
	if err != nil {
		log.Error().Err(err).Str("submissionId", submissionID).Msg("Failed to load report")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load report",
			Code:  "INTERNAL_ERROR",
		})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "No report for submission",
			Code:  "REPORT_NOT_FOUND",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Reports lists stored reports newest first. Accepts assignmentId and limit
// query parameters.
func (h *Handler) Reports(c *gin.Context) {
	var limit int64
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			badRequest(c, "limit must be a positive integer", "INVALID_REQUEST")
			return
		}
		limit = parsed
	}

	reports, err := h.reports.ListReports(c.Request.Context(), c.Query("assignmentId"), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reports")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to list reports",
			Code:  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

func (h *Handler) corpusError(c *gin.Context, err error, assignmentID string) {
	if errors.Is(err, plagiarism.ErrUnsupportedLanguage) || errors.Is(err, plagiarism.ErrMissingAssignment) {
		badRequest(c, err.Error(), "INVALID_REQUEST")
		return
	}
	log.Error().Err(err).Str("assignmentId", assignmentID).Msg("Corpus operation failed")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: "Corpus operation failed",
		Code:  "INTERNAL_ERROR",
	})
}

func badRequest(c *gin.Context, msg, code string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: msg,
		Code:  code,
	})
}
