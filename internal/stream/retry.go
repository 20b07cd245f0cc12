package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrPermanent marks failures that retrying cannot fix. RetryWithBackoff
// dead-letters them immediately.
var ErrPermanent = errors.New("permanent failure")

// ErrDeadLetterFailed is returned when a failed entry could not be pushed to
// the dead letter list and must not be acknowledged.
var ErrDeadLetterFailed = errors.New("dead letter push failed")

type RetryHandler struct {
	client        redis.Cmdable
	deadLetterKey string
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
}

func NewRetryHandler(client redis.Cmdable, deadLetterKey string) *RetryHandler {
	return &RetryHandler{
		client:        client,
		deadLetterKey: deadLetterKey,
		maxRetries:    3,
		baseDelay:     time.Second,
		maxDelay:      30 * time.Second,
	}
}

// DeadLetter is the entry pushed to the dead letter list.
type DeadLetter struct {
	MessageID string                 `json:"messageId"`
	Fields    map[string]interface{} `json:"fields"`
	Error     string                 `json:"error"`
	Attempts  int                    `json:"attempts"`
	FailedAt  time.Time              `json:"failedAt"`
}

// RetryWithBackoff runs fn until it succeeds, doubling the delay between
// attempts. When attempts run out the message goes to the dead letter list
// and the last error is returned.
func (h *RetryHandler) RetryWithBackoff(ctx context.Context, fn func() error, messageID string, fields map[string]interface{}) error {
	var lastErr error
	delay := h.baseDelay
	attempts := 0

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		attempts++
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPermanent) {
			break
		}

		log.Warn().
			Err(lastErr).
			Str("entryId", messageID).
			Int("attempt", attempts).
			Msg("Submission ingest failed, retrying")

		if attempt == h.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, h.maxDelay)
	}

	if err := h.sendToDeadLetter(ctx, messageID, fields, lastErr, attempts); err != nil {
		log.Error().Err(err).Str("entryId", messageID).Msg("Failed to push submission to dead letter queue")
		return fmt.Errorf("%w after %d attempts: %w", ErrDeadLetterFailed, attempts, errors.Join(lastErr, err))
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (h *RetryHandler) sendToDeadLetter(ctx context.Context, messageID string, fields map[string]interface{}, cause error, attempts int) error {
	entry, err := json.Marshal(DeadLetter{
		MessageID: messageID,
		Fields:    fields,
		Error:     cause.Error(),
		Attempts:  attempts,
		FailedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter: %w", err)
	}

	if err := h.client.LPush(ctx, h.deadLetterKey, entry).Err(); err != nil {
		return fmt.Errorf("failed to push dead letter: %w", err)
	}

	log.Warn().
		Str("entryId", messageID).
		Str("dead_letter_key", h.deadLetterKey).
		Msg("Submission moved to dead letter queue")
	return nil
}
