package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/domain"
)

func testSyncConfig(freq domain.SyncFrequency) config.SyncConfig {
	return config.SyncConfig{
		Frequency:    freq,
		PassDeadline: time.Second,
		MaxAttempts:  3,
		BackoffBase:  100 * time.Millisecond,
	}
}

func TestRunPassRetriesWithExponentialBackoff(t *testing.T) {
	calls := 0
	pass := func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}

	s := New("shipitez", testSyncConfig(domain.SyncHourly), pass, zap.NewNop())
	var waits []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) bool {
		waits = append(waits, d)
		return true
	}

	s.runPass(context.Background())

	assert.Equal(t, 3, calls)
	require.Len(t, waits, 2)
	assert.Equal(t, 100*time.Millisecond, waits[0])
	assert.Equal(t, 200*time.Millisecond, waits[1])
}

func TestRunPassGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	pass := func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	}

	s := New("shipitez", testSyncConfig(domain.SyncHourly), pass, zap.NewNop())
	s.sleep = func(ctx context.Context, d time.Duration) bool { return true }

	s.runPass(context.Background())
	assert.Equal(t, 3, calls)

	// the next scheduled pass starts a fresh attempt budget
	s.runPass(context.Background())
	assert.Equal(t, 6, calls)
}

func TestRunPassStopsRetryingWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	pass := func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	}

	s := New("shipitez", testSyncConfig(domain.SyncHourly), pass, zap.NewNop())
	s.runPass(ctx)

	assert.Equal(t, 1, calls)
}

func TestRunPassAppliesDeadline(t *testing.T) {
	cfg := testSyncConfig(domain.SyncHourly)
	cfg.PassDeadline = 10 * time.Millisecond
	cfg.MaxAttempts = 1

	var sawDeadline bool
	pass := func(ctx context.Context) error {
		_, sawDeadline = ctx.Deadline()
		return nil
	}

	s := New("shipitez", cfg, pass, zap.NewNop())
	s.runPass(context.Background())
	assert.True(t, sawDeadline)
}

func TestRunPassSkipsWhenAlreadyRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	pass := func(ctx context.Context) error {
		calls++
		close(started)
		<-release
		return nil
	}

	cfg := testSyncConfig(domain.SyncHourly)
	cfg.MaxAttempts = 1
	s := New("shipitez", cfg, pass, zap.NewNop())

	go s.runPass(context.Background())
	<-started

	// overlapping pass is dropped, not queued
	s.runPass(context.Background())
	close(release)

	assert.Eventually(t, func() bool { return calls == 1 }, time.Second, 10*time.Millisecond)
}

func TestRealTimeRunsOnlyOnTrigger(t *testing.T) {
	ran := make(chan struct{}, 4)
	pass := func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}

	cfg := testSyncConfig(domain.SyncRealTime)
	cfg.MaxAttempts = 1
	s := New("shipitez", cfg, pass, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case <-ran:
		t.Fatal("real-time scheduler ran a pass without a trigger")
	case <-time.After(50 * time.Millisecond):
	}

	s.Trigger()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("triggered pass never ran")
	}
}

func TestTriggerCoalesces(t *testing.T) {
	s := New("shipitez", testSyncConfig(domain.SyncRealTime), func(ctx context.Context) error { return nil }, zap.NewNop())

	// buffered once; extra triggers must not block
	s.Trigger()
	s.Trigger()
	s.Trigger()

	assert.Len(t, s.trigger, 1)
}
