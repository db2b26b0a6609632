package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of queued background work, identified by the domain
// object it belongs to (an export job id, for example).
type Task struct {
	ID      string
	Kind    string
	Attempt int
}

// Func processes a task. A non-nil error triggers a retry until the
// attempt budget runs out.
type Func func(context.Context, Task) error

// Options tunes the worker pool.
type Options struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger
}

// Queue is an in-memory task dispatcher backed by a fixed worker pool.
// Tasks do not survive a restart; callers that need durability keep their
// own job records and re-enqueue on boot.
type Queue struct {
	name    string
	run     Func
	opts    Options
	tasks   chan Task
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// New builds a queue around the given task func.
func New(name string, run Func, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 4
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Queue{
		name:   name,
		run:    run,
		opts:   opts,
		tasks:  make(chan Task, opts.Buffer),
		logger: opts.Logger,
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.started = true
	q.logger.Info("task queue started",
		zap.String("queue", q.name),
		zap.Int("workers", q.opts.Workers))
}

// Stop cancels the workers and blocks until they drain.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("task queue stopped", zap.String("queue", q.name))
}

// Enqueue hands a task to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(task Task) error {
	q.mu.Lock()
	started := q.started
	ctx := q.ctx
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s is not running", q.name)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s shut down: %w", q.name, ctx.Err())
	case q.tasks <- task:
		return nil
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.run(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

// retry re-enqueues a failed task after the backoff, off the worker
// goroutine so a failing task cannot stall the pool.
func (q *Queue) retry(task Task, cause error) {
	task.Attempt++
	if task.Attempt >= q.opts.MaxAttempts {
		q.logger.Error("task dropped after final attempt",
			zap.String("queue", q.name),
			zap.String("task_id", task.ID),
			zap.String("kind", task.Kind),
			zap.Error(cause))
		return
	}
	q.logger.Warn("task failed, scheduling retry",
		zap.String("queue", q.name),
		zap.String("task_id", task.ID),
		zap.Int("attempt", task.Attempt),
		zap.Error(cause))

	go func() {
		timer := time.NewTimer(q.opts.Backoff)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(task); err != nil {
				q.logger.Error("failed to re-enqueue task",
					zap.String("queue", q.name),
					zap.String("task_id", task.ID),
					zap.Error(err))
			}
		}
	}()
}
