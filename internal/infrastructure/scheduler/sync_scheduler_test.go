package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/domain/commerce"
)

func TestStart_RejectsBadInterval(t *testing.T) {
	s := NewSyncScheduler(func(context.Context) error { return nil }, zap.NewNop())
	assert.ErrorIs(t, s.Start(0), ErrInvalidInterval)
	assert.False(t, s.Running())
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := NewSyncScheduler(func(context.Context) error { return nil }, zap.NewNop())

	require.NoError(t, s.Start(15))
	assert.True(t, s.Running())
	assert.Equal(t, 15*time.Minute, s.Interval())
	assert.ErrorIs(t, s.Start(15), ErrAlreadyRunning)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.Running())
	assert.Equal(t, time.Duration(0), s.Interval())
	assert.ErrorIs(t, s.Stop(context.Background()), ErrNotRunning)
}

func TestStop_ThenStartAgain(t *testing.T) {
	s := NewSyncScheduler(func(context.Context) error { return nil }, zap.NewNop())

	require.NoError(t, s.Start(1))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Start(2))
	assert.Equal(t, 2*time.Minute, s.Interval())
	require.NoError(t, s.Stop(context.Background()))
}

func TestLoop_StopDoesNotCancelInFlightCycle(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	var sawCancel atomic.Bool

	s := NewSyncScheduler(func(ctx context.Context) error {
		if !first.CompareAndSwap(false, true) {
			return nil
		}
		close(started)
		<-release
		sawCancel.Store(ctx.Err() != nil)
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.loop(ctx, 5*time.Millisecond)

	<-started
	cancel()
	// give the cancellation time to propagate before the cycle resumes
	time.Sleep(20 * time.Millisecond)
	close(release)
	s.wg.Wait()

	assert.False(t, sawCancel.Load(), "in-flight cycle must run to completion")
}

func TestFire_RunsCycle(t *testing.T) {
	var calls atomic.Int32
	s := NewSyncScheduler(func(context.Context) error {
		calls.Add(1)
		return nil
	}, zap.NewNop())

	s.fire(context.Background())
	s.fire(context.Background())
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, s.Disabled())
}

func TestFire_AuthFailureSuspends(t *testing.T) {
	var calls atomic.Int32
	s := NewSyncScheduler(func(context.Context) error {
		calls.Add(1)
		return commerce.ErrPlatformAuthFailed
	}, zap.NewNop())

	s.fire(context.Background())
	assert.True(t, s.Disabled())

	// further ticks are skipped without touching the platform
	s.fire(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	s.Resume()
	assert.False(t, s.Disabled())
	s.fire(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestFire_TransientFailureDoesNotSuspend(t *testing.T) {
	s := NewSyncScheduler(func(context.Context) error {
		return commerce.ErrPlatformUnavailable
	}, zap.NewNop())

	s.fire(context.Background())
	assert.False(t, s.Disabled())
}
