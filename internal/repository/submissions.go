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

const submissionsCollection = "submissions"

type SubmissionsRepository struct {
	mongoRepo *MongoRepository
}

func NewSubmissionsRepository(mongoRepo *MongoRepository) *SubmissionsRepository {
	return &SubmissionsRepository{
		mongoRepo: mongoRepo,
	}
}

// InsertSubmission stores the submission, replacing an earlier copy with the
// same submissionId so redelivered stream messages stay idempotent.
func (r *SubmissionsRepository) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now()
	}
	filter := bson.M{"submissionId": submission.SubmissionID}
	if err := r.mongoRepo.Upsert(ctx, submissionsCollection, filter, submission); err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	return nil
}

// GetSubmission returns nil when no submission has the id.
func (r *SubmissionsRepository) GetSubmission(ctx context.Context, submissionID string) (*models.Submission, error) {
	filter := bson.M{"submissionId": submissionID}

	var submission models.Submission
	err := r.mongoRepo.FindOne(ctx, submissionsCollection, filter).Decode(&submission)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	return &submission, nil
}

// GetSubmissionsByAssignment returns the assignment's submissions in one
// language, oldest first.
func (r *SubmissionsRepository) GetSubmissionsByAssignment(ctx context.Context, assignmentID, language string) ([]*models.Submission, error) {
	filter := bson.M{"assignmentId": assignmentID, "language": language}
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})

	cursor, err := r.mongoRepo.FindMany(ctx, submissionsCollection, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var submissions []*models.Submission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode submissions: %w", err)
	}

	return submissions, nil
}
