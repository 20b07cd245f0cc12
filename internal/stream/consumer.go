package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ankit071105/VedaScore/internal/ingest"
	"github.com/ankit071105/VedaScore/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	readBatchSize     = 10
	readBlock         = time.Second
	reclaimBatchSize  = 100
	reclaimMinIdle    = time.Minute
	reclaimInterval   = 30 * time.Second
	trimInterval      = time.Hour
	readFailurePause  = time.Second
	groupExistsMarker = "BUSYGROUP"
)

// Processor handles one decoded submission.
type Processor interface {
	ProcessSubmission(ctx context.Context, submission *models.Submission) error
}

// Consumer reads submissions from a Redis stream consumer group.
type Consumer struct {
	client          redis.Cmdable
	streamKey       string
	group           string
	name            string
	processor       Processor
	retryHandler    *RetryHandler
	retention       time.Duration
	reclaimInterval time.Duration
	trimInterval    time.Duration
	lastReclaim     time.Time
}

func NewConsumer(
	client redis.Cmdable,
	streamKey string,
	group string,
	name string,
	processor Processor,
	retryHandler *RetryHandler,
	retention time.Duration,
) *Consumer {
	return &Consumer{
		client:          client,
		streamKey:       streamKey,
		group:           group,
		name:            name,
		processor:       processor,
		retryHandler:    retryHandler,
		retention:       retention,
		reclaimInterval: reclaimInterval,
		trimInterval:    trimInterval,
		lastReclaim:     time.Now(),
	}
}

// Start joins the consumer group and ingests submissions until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		log.Warn().Err(err).Str("group", c.group).Msg("Could not create submission consumer group")
	}

	// Entries left pending by a crashed consumer are picked up first.
	if err := c.reclaimStalled(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to reclaim stalled submissions on startup")
	}
	c.lastReclaim = time.Now()

	go c.trimPeriodically(ctx)
	log.Info().
		Str("stream", c.streamKey).
		Str("consumer", c.name).
		Dur("retention", c.retention).
		Msg("Submission consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.poll(ctx); err != nil {
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Submission stream read failed")
			time.Sleep(readFailurePause)
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	// Only entries added after the group exists are delivered.
	err := c.client.XGroupCreateMkStream(ctx, c.streamKey, c.group, "$").Err()
	if err == nil {
		log.Info().Str("group", c.group).Str("stream", c.streamKey).Msg("Submission consumer group created")
		return nil
	}
	if strings.Contains(err.Error(), groupExistsMarker) {
		return nil
	}
	return fmt.Errorf("failed to create consumer group: %w", err)
}

// reclaimStalled claims entries that another consumer read but never
// acknowledged within reclaimMinIdle, and ingests them here.
func (c *Consumer) reclaimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.streamKey,
		Group:  c.group,
		Start:  "-",
		End:    "+",
		Count:  reclaimBatchSize,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to list pending submissions: %w", err)
	}

	stalled := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle >= reclaimMinIdle {
			stalled = append(stalled, p.ID)
		}
	}
	if len(stalled) == 0 {
		return nil
	}

	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.streamKey,
		Group:    c.group,
		Consumer: c.name,
		MinIdle:  reclaimMinIdle,
		Messages: stalled,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to claim stalled submissions: %w", err)
	}

	log.Info().
		Int("stalled", len(stalled)).
		Int("claimed", len(claimed)).
		Msg("Reclaimed stalled submissions")

	for i := range claimed {
		if err := c.processMessage(ctx, &claimed[i]); err != nil {
			log.Error().Err(err).Str("entryId", claimed[i].ID).Msg("Reclaimed submission failed")
		}
	}
	return nil
}

func (c *Consumer) poll(ctx context.Context) error {
	if time.Since(c.lastReclaim) > c.reclaimInterval {
		if err := c.reclaimStalled(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to reclaim stalled submissions")
		}
		c.lastReclaim = time.Now()
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.streamKey, ">"},
		Count:    readBatchSize,
		Block:    readBlock,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read submission stream: %w", err)
	}

	for _, s := range streams {
		if s.Stream != c.streamKey {
			continue
		}
		for i := range s.Messages {
			// Failures are already retried or dead-lettered by processMessage.
			if err := c.processMessage(ctx, &s.Messages[i]); err != nil {
				log.Error().Err(err).Str("entryId", s.Messages[i].ID).Msg("Submission not ingested")
			}
		}
	}
	return nil
}

// processMessage ingests one stream entry. The entry is acknowledged once it
// is ingested or safely in the dead letter list; otherwise it stays pending.
func (c *Consumer) processMessage(ctx context.Context, msg *redis.XMessage) error {
	fields := make(map[string]string, len(msg.Values))
	for key, val := range msg.Values {
		if s, ok := val.(string); ok {
			fields[key] = s
		}
	}
	deadLetterFields := toInterfaceMap(fields)

	submission, err := ParseSubmission(&StreamMessage{ID: msg.ID, Fields: fields})
	if err != nil {
		log.Error().Err(err).Str("entryId", msg.ID).Msg("Malformed submission entry")
		if dlqErr := c.retryHandler.sendToDeadLetter(ctx, msg.ID, deadLetterFields, err, 0); dlqErr != nil {
			log.Error().Err(dlqErr).Str("entryId", msg.ID).Msg("Failed to dead-letter malformed submission, leaving it pending")
			return errors.Join(err, dlqErr)
		}
		c.acknowledge(ctx, msg.ID)
		return err
	}

	err = c.retryHandler.RetryWithBackoff(ctx, func() error {
		err := c.processor.ProcessSubmission(ctx, submission)
		if errors.Is(err, ingest.ErrInvalidSubmission) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}, msg.ID, deadLetterFields)

	switch {
	case err == nil:
		return c.acknowledge(ctx, msg.ID)
	case errors.Is(err, context.Canceled), errors.Is(err, ErrDeadLetterFailed):
		// Redelivered by the next reclaim pass.
		return err
	default:
		c.acknowledge(ctx, msg.ID)
		return err
	}
}

// trimStream drops entries older than the retention window.
func (c *Consumer) trimStream(ctx context.Context) error {
	cutoff := time.Now().Add(-c.retention)
	minID := fmt.Sprintf("%d-0", cutoff.UnixMilli())

	trimmed, err := c.client.XTrimMinID(ctx, c.streamKey, minID).Result()
	if err != nil {
		return fmt.Errorf("failed to trim submission stream: %w", err)
	}
	if trimmed > 0 {
		log.Debug().
			Int64("trimmed", trimmed).
			Time("cutoff", cutoff).
			Msg("Trimmed expired submissions from stream")
	}
	return nil
}

func (c *Consumer) trimPeriodically(ctx context.Context) {
	ticker := time.NewTicker(c.trimInterval)
	defer ticker.Stop()

	for {
		if err := c.trimStream(ctx); err != nil {
			log.Error().Err(err).Str("stream", c.streamKey).Msg("Submission stream trim failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Consumer) acknowledge(ctx context.Context, entryID string) error {
	if err := c.client.XAck(ctx, c.streamKey, c.group, entryID).Err(); err != nil {
		log.Error().Err(err).Str("entryId", entryID).Msg("Failed to acknowledge submission entry")
		return err
	}
	return nil
}

func toInterfaceMap(fields map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
