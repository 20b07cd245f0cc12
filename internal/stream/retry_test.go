package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the handful of commands the stream package issues.
// Anything else panics on the nil embedded interface.
type fakeRedis struct {
	redis.Cmdable
	pushed  map[string][]string
	acked   []string
	pushErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{pushed: make(map[string][]string)}
}

func (f *fakeRedis) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		switch val := v.(type) {
		case []byte:
			f.pushed[key] = append(f.pushed[key], string(val))
		default:
			f.pushed[key] = append(f.pushed[key], fmt.Sprint(val))
		}
	}
	return redis.NewIntResult(int64(len(f.pushed[key])), nil)
}

func (f *fakeRedis) XAck(_ context.Context, _, _ string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func fastRetryHandler(client redis.Cmdable) *RetryHandler {
	h := NewRetryHandler(client, "dlq")
	h.baseDelay = time.Millisecond
	h.maxDelay = 2 * time.Millisecond
	return h
}

func TestRetryWithBackoffEventuallySucceeds(t *testing.T) {
	rdb := newFakeRedis()
	h := fastRetryHandler(rdb)

	calls := 0
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, "1-0", nil)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Empty(t, rdb.pushed["dlq"])
}

func TestRetryWithBackoffDeadLetters(t *testing.T) {
	rdb := newFakeRedis()
	h := fastRetryHandler(rdb)

	calls := 0
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		return errors.New("mongo down")
	}, "1-0", map[string]interface{}{"submissionId": "s1"})

	require.Error(t, err)
	assert.Equal(t, h.maxRetries+1, calls)
	require.Len(t, rdb.pushed["dlq"], 1)

	var dl DeadLetter
	require.NoError(t, json.Unmarshal([]byte(rdb.pushed["dlq"][0]), &dl))
	assert.Equal(t, "1-0", dl.MessageID)
	assert.Equal(t, "mongo down", dl.Error)
	assert.Equal(t, h.maxRetries+1, dl.Attempts)
	assert.Equal(t, "s1", dl.Fields["submissionId"])
}

func TestRetryWithBackoffPermanentStopsEarly(t *testing.T) {
	rdb := newFakeRedis()
	h := fastRetryHandler(rdb)

	calls := 0
	err := h.RetryWithBackoff(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: bad input", ErrPermanent)
	}, "1-0", nil)

	assert.ErrorIs(t, err, ErrPermanent)
	assert.Equal(t, 1, calls)
	assert.Len(t, rdb.pushed["dlq"], 1)
}

func TestRetryWithBackoffHonoursCancellation(t *testing.T) {
	rdb := newFakeRedis()
	h := NewRetryHandler(rdb, "dlq")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.RetryWithBackoff(ctx, func() error { return errors.New("boom") }, "1-0", nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rdb.pushed["dlq"])
}

func TestRetryWithBackoffReportsDeadLetterFailure(t *testing.T) {
	rdb := newFakeRedis()
	rdb.pushErr = errors.New("redis down")
	h := fastRetryHandler(rdb)

	err := h.RetryWithBackoff(context.Background(), func() error {
		return fmt.Errorf("%w: bad input", ErrPermanent)
	}, "1-0", nil)

	assert.ErrorIs(t, err, ErrDeadLetterFailed)
	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorContains(t, err, "redis down")
}
