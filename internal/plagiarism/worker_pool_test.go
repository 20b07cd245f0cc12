package plagiarism

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob func(ctx context.Context) error

func (f funcJob) Execute(ctx context.Context) error { return f(ctx) }

func TestWorkerPoolRunsJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 3)
	defer pool.Close()

	var ran atomic.Int32
	done := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(funcJob(func(context.Context) error {
			ran.Add(1)
			done <- struct{}{}
			return nil
		})))
	}
	for i := 0; i < 50; i++ {
		<-done
	}

	assert.Equal(t, int32(50), ran.Load())
	assert.Equal(t, 3, pool.Size())
}

func TestWorkerPoolSurvivesFailingJobs(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1)
	defer pool.Close()

	done := make(chan struct{})
	require.NoError(t, pool.Submit(funcJob(func(context.Context) error { return errors.New("boom") })))
	require.NoError(t, pool.Submit(funcJob(func(context.Context) error {
		close(done)
		return nil
	})))

	<-done
}

func TestWorkerPoolDefaultSize(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0)
	defer pool.Close()

	assert.GreaterOrEqual(t, pool.Size(), 1)
}

func TestWorkerPoolCloseIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2)

	pool.Close()
	pool.Close()

	err := pool.Submit(funcJob(func(context.Context) error { return nil }))
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestWorkerPoolSubmitContextGivesUpWhenQueueIsFull(t *testing.T) {
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
	for i := 0; i < 2; i++ {
		require.NoError(t, pool.Submit(funcJob(func(context.Context) error { return nil })))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.SubmitContext(ctx, funcJob(func(context.Context) error { return nil }))

	assert.ErrorIs(t, err, context.Canceled)
}
