package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const statusTTL = 12 * time.Hour

var validSteps = map[models.Step]bool{
	models.StepIdle:      true,
	models.StepQueued:    true,
	models.StepChecking:  true,
	models.StepAnalyzing: true,
	models.StepCompleted: true,
	models.StepFailed:    true,
}

func statusKey(submissionID string) string {
	return "plagiarism_check_status:" + submissionID
}

// StatusStore keeps the current check step of each submission in Redis.
type StatusStore struct {
	client redis.Cmdable
}

func NewStatusStore(client redis.Cmdable) *StatusStore {
	return &StatusStore{client: client}
}

func (s *StatusStore) UpdateStatus(ctx context.Context, submissionID string, step models.Step) error {
	if !validSteps[step] {
		return fmt.Errorf("unknown step: %s", step)
	}

	rkey := statusKey(submissionID)

	err := s.client.Set(ctx, rkey, string(step), statusTTL).Err()
	if err != nil {
		log.Error().Err(err).
			Str("step", string(step)).
			Str("submissionId", submissionID).
			Str("redisKey", rkey).
			Msg("Failed to update status in Redis")
		return fmt.Errorf("failed to update status in Redis: %w", err)
	}

	log.Trace().
		Str("step", string(step)).
		Str("submissionId", submissionID).
		Msg("Status updated in Redis")

	return nil
}

// GetStatus returns StepIdle when no check has been recorded.
func (s *StatusStore) GetStatus(ctx context.Context, submissionID string) (models.Step, error) {
	val, err := s.client.Get(ctx, statusKey(submissionID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.StepIdle, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read status from Redis: %w", err)
	}
	return models.Step(val), nil
}
