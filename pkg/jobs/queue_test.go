package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesTasks(t *testing.T) {
	var processed int64
	q := New("test", func(ctx context.Context, task Task) error {
		atomic.AddInt64(&processed, 1)
		return nil
	}, Options{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Task{ID: "t", Kind: "noop"}))
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 5
	}, time.Second, 10*time.Millisecond)
}

func TestQueueRetriesFailedTasks(t *testing.T) {
	var attempts int64
	q := New("test", func(ctx context.Context, task Task) error {
		if atomic.AddInt64(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		return nil
	}, Options{Workers: 1, MaxAttempts: 3, Backoff: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{ID: "t", Kind: "flaky"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestQueueDropsTaskAfterFinalAttempt(t *testing.T) {
	var attempts int64
	q := New("test", func(ctx context.Context, task Task) error {
		atomic.AddInt64(&attempts, 1)
		return errors.New("permanent")
	}, Options{Workers: 1, MaxAttempts: 2, Backoff: 5 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{ID: "t", Kind: "doomed"}))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&attempts) == 2
	}, time.Second, 5*time.Millisecond)
	// Give a potential extra retry a moment to show up.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(2), atomic.LoadInt64(&attempts))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := New("test", func(ctx context.Context, task Task) error { return nil }, Options{})
	require.Error(t, q.Enqueue(Task{ID: "t"}))
}
