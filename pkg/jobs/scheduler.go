package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one run of a periodic maintenance job.
type Task func(ctx context.Context) error

// Config tunes a Scheduler.
type Config struct {
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Scheduler runs a task immediately on Start and then every Interval until
// stopped. A failed run is retried up to MaxRetries times before waiting for
// the next tick.
type Scheduler struct {
	name       string
	task       Task
	interval   time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewScheduler builds a scheduler for task.
func NewScheduler(name string, task Task, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{
		name:       name,
		task:       task,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Start launches the loop. Calling it twice has no effect.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.started = true
	go s.loop(ctx)
	s.logger.Info("scheduler started", zap.String("job", s.name), zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for a running task to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	done := s.done
	s.started = false
	s.mu.Unlock()
	<-done
	s.logger.Info("scheduler stopped", zap.String("job", s.name))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.runWithRetry(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runWithRetry(ctx context.Context) {
	for attempt := 0; ; attempt++ {
		err := s.task(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}
		if attempt >= s.maxRetries {
			s.logger.Error("job failed", zap.String("job", s.name), zap.Int("attempts", attempt+1), zap.Error(err))
			return
		}
		s.logger.Warn("job failed, retrying", zap.String("job", s.name), zap.Int("attempt", attempt+1), zap.Error(err))
		timer := time.NewTimer(s.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
