package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/commerce"
)

var (
	ErrAlreadyRunning  = errors.New("scheduler: already running")
	ErrNotRunning      = errors.New("scheduler: not running")
	ErrInvalidInterval = errors.New("scheduler: interval must be at least one minute")
)

// CycleFunc runs one sync cycle. A cycle that is dropped because another one
// is in flight must return nil or a benign error; the scheduler never queues.
type CycleFunc func(ctx context.Context) error

// SyncScheduler fires the sync cycle on a fixed interval. Stop only prevents
// future cycles; a cycle already in flight runs to completion.
type SyncScheduler struct {
	run    CycleFunc
	logger *zap.Logger

	mu        sync.Mutex
	isRunning bool
	disabled  bool
	interval  time.Duration
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewSyncScheduler creates a scheduler around the given cycle function.
func NewSyncScheduler(run CycleFunc, logger *zap.Logger) *SyncScheduler {
	return &SyncScheduler{run: run, logger: logger}
}

// Start begins firing cycles every intervalMinutes. The first cycle fires
// after one full interval, not immediately.
func (s *SyncScheduler) Start(intervalMinutes int) error {
	if intervalMinutes < 1 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrAlreadyRunning
	}
	s.isRunning = true
	s.disabled = false
	s.interval = time.Duration(intervalMinutes) * time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx, s.interval)

	s.logger.Info("sync scheduler started",
		zap.Int("interval_minutes", intervalMinutes),
	)
	return nil
}

// Stop halts the ticker and waits for an in-flight cycle to finish.
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the scheduler is active.
func (s *SyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Interval returns the configured interval, zero when stopped.
func (s *SyncScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return 0
	}
	return s.interval
}

// Disabled reports whether cycles are suspended after an auth failure.
func (s *SyncScheduler) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// Resume lifts the auth-failure suspension, typically after credentials were
// updated. A no-op when the scheduler is healthy.
func (s *SyncScheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		s.disabled = false
		s.logger.Info("sync scheduler resumed")
	}
}

func (s *SyncScheduler) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// ctx only ends the ticker loop. The cycle gets a detached
			// context so Stop never aborts work already in flight.
			s.fire(context.WithoutCancel(ctx))
		}
	}
}

func (s *SyncScheduler) fire(ctx context.Context) {
	s.mu.Lock()
	if s.disabled {
		s.mu.Unlock()
		s.logger.Debug("sync cycle skipped, scheduler suspended after auth failure")
		return
	}
	s.mu.Unlock()

	err := s.run(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}

	if errors.Is(err, commerce.ErrPlatformAuthFailed) {
		// bad credentials will not fix themselves; stop burning API calls
		// until someone updates them and calls Resume
		s.mu.Lock()
		s.disabled = true
		s.mu.Unlock()
		s.logger.Error("sync suspended until credentials are updated", zap.Error(err))
		return
	}

	s.logger.Warn("sync cycle failed, next tick will retry", zap.Error(err))
}
