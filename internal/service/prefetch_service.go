package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/pkg/config"
	"github.com/Alexseyf/elo-escola/pkg/jobs"
)

const jobTypeWarmup = "warmup"

// WarmupPayload describes why a warm-up was requested.
type WarmupPayload struct {
	Reason string
}

// PrefetchService warms the student list and chart cache in the background
// after the operator session changes. Failed warm-ups are not retried.
type PrefetchService struct {
	queue   *jobs.Queue
	charts  *ChartService
	logger  *zap.Logger
	enabled bool

	mu      sync.Mutex
	lastErr error
}

// NewPrefetchService builds the service and its queue. Call Start before Trigger.
func NewPrefetchService(cfg config.PrefetchConfig, charts *ChartService, logger *zap.Logger) *PrefetchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PrefetchService{
		charts:  charts,
		logger:  logger,
		enabled: cfg.Enabled && charts != nil,
	}
	s.queue = jobs.NewQueue("prefetch", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: 1,
		Logger:     logger,
	})
	return s
}

// Enabled reports whether warm-ups run at all.
func (s *PrefetchService) Enabled() bool {
	return s != nil && s.enabled
}

// Start launches the workers.
func (s *PrefetchService) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.queue.Start(ctx)
}

// Stop waits for running warm-ups to finish.
func (s *PrefetchService) Stop() {
	if !s.Enabled() {
		return
	}
	s.queue.Stop()
}

// Trigger schedules a warm-up. Requests arriving while one is already queued are dropped.
func (s *PrefetchService) Trigger(reason string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}
	return s.queue.TryEnqueue(jobs.Job{Type: jobTypeWarmup, Payload: WarmupPayload{Reason: reason}})
}

// Runs returns how many warm-ups finished and the last error, if any.
func (s *PrefetchService) Runs() (int, error) {
	stats := s.queue.Stats()
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(stats.Succeeded + stats.Failed), s.lastErr
}

// Stats exposes the queue counters, including triggers dropped while a
// warm-up was already pending.
func (s *PrefetchService) Stats() jobs.Stats {
	if s == nil {
		return jobs.Stats{}
	}
	return s.queue.Stats()
}

func (s *PrefetchService) handle(ctx context.Context, job jobs.Job) error {
	if job.Type != jobTypeWarmup {
		return fmt.Errorf("unknown job type %q", job.Type)
	}
	start := time.Now()
	_, err := s.charts.Rebuild(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("warm student cache: %w", err)
	}
	payload, _ := job.Payload.(WarmupPayload)
	s.logger.Info("student cache warmed",
		zap.String("job_id", job.ID),
		zap.String("reason", payload.Reason),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
