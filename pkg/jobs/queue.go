package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Stats counts jobs since the queue was built.
type Stats struct {
	Accepted  uint64
	Dropped   uint64
	Succeeded uint64
	Failed    uint64
}

// Queue is an in-memory worker pool. Jobs run at most once: a failing or
// panicking job is logged and counted, never requeued.
type Queue struct {
	name    string
	handler Handler
	workers int
	logger  *zap.Logger
	jobs    chan Job

	accepted  atomic.Uint64
	dropped   atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewQueue builds a queue. Workers defaults to 1 and BufferSize to 4 per worker.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		workers: cfg.Workers,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop cancels the workers and waits for the running jobs to return.
// Buffered jobs that never started are discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("discarded", len(q.jobs)))
}

// Enqueue blocks until the job is buffered or the queue stops, and returns the job id.
func (q *Queue) Enqueue(job Job) (string, error) {
	ctx, ok := q.running()
	if !ok {
		return "", fmt.Errorf("queue %s not started", q.name)
	}
	job = prepare(job)
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		q.accepted.Add(1)
		return job.ID, nil
	}
}

// TryEnqueue buffers the job unless the buffer is full, in which case the job is dropped.
func (q *Queue) TryEnqueue(job Job) (string, bool) {
	if _, ok := q.running(); !ok {
		return "", false
	}
	job = prepare(job)
	select {
	case q.jobs <- job:
		q.accepted.Add(1)
		return job.ID, true
	default:
		q.dropped.Add(1)
		q.logger.Debug("queue full, job dropped", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return "", false
	}
}

// Stats returns a snapshot of the counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Accepted:  q.accepted.Load(),
		Dropped:   q.dropped.Load(),
		Succeeded: q.succeeded.Load(),
		Failed:    q.failed.Load(),
	}
}

func (q *Queue) running() (context.Context, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ctx, q.started
}

func prepare(job Job) Job {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return job
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	start := time.Now()
	err := q.call(job)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error("job failed",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	q.succeeded.Add(1)
}

func (q *Queue) call(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}
