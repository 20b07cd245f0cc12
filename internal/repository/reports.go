package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ankit071105/VedaScore/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	reportsCollection = "plagiarism_reports"
	defaultListLimit  = 100
)

type ReportsRepository struct {
	mongoRepo *MongoRepository
}

func NewReportsRepository(mongoRepo *MongoRepository) *ReportsRepository {
	return &ReportsRepository{
		mongoRepo: mongoRepo,
	}
}

func (r *ReportsRepository) InsertReport(ctx context.Context, report *models.PlagiarismReport) error {
	report.CreatedAt = time.Now()

	err := r.mongoRepo.InsertOne(ctx, reportsCollection, report)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// ListReports returns reports newest first, optionally restricted to one
// assignment. limit <= 0 uses the default page size.
func (r *ReportsRepository) ListReports(ctx context.Context, assignmentID string, limit int64) ([]*models.PlagiarismReport, error) {
	filter := bson.M{}
	if assignmentID != "" {
		filter["assignmentId"] = assignmentID
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.mongoRepo.FindMany(ctx, reportsCollection, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*models.PlagiarismReport, 0)
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode reports: %w", err)
	}

	return reports, nil
}

// GetLatestReportBySubmission returns nil when the submission has no report.
func (r *ReportsRepository) GetLatestReportBySubmission(ctx context.Context, submissionID string) (*models.PlagiarismReport, error) {
	filter := bson.M{"submissionId": submissionID}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var report models.PlagiarismReport
	err := r.mongoRepo.FindOne(ctx, reportsCollection, filter, opts).Decode(&report)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find report: %w", err)
	}

	return &report, nil
}
