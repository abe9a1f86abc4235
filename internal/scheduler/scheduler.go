// Package scheduler drives recurring sync passes per tenant.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// Pass is one full sync run. service.SyncPipeline.RunOnce satisfies it.
type Pass func(ctx context.Context) error

// Scheduler runs a tenant's sync pass on the configured cadence. At
// real-time frequency there is no ticker; passes run only when
// Trigger is called (storefront webhooks).
type Scheduler struct {
	tenantID  string
	frequency domain.SyncFrequency
	deadline  time.Duration
	maxTries  int
	backoff   time.Duration
	pass      Pass
	logger    *zap.Logger

	mu      sync.Mutex
	trigger chan struct{}

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) bool
}

// New builds a scheduler from the sync config.
func New(tenantID string, cfg config.SyncConfig, pass Pass, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		tenantID:  tenantID,
		frequency: cfg.Frequency,
		deadline:  cfg.PassDeadline,
		maxTries:  cfg.MaxAttempts,
		backoff:   cfg.BackoffBase,
		pass:      pass,
		logger:    logger,
		trigger:   make(chan struct{}, 1),
		sleep:     sleepCtx,
	}
}

// Trigger requests an immediate pass. Coalesces if one is already
// pending.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run executes passes until ctx is cancelled. Call from a goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.frequency.Interval()

	// first pass immediately unless event-driven
	if interval > 0 {
		s.runPass(ctx)
	}

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.runPass(ctx)
		case <-s.trigger:
			s.runPass(ctx)
		}
	}
}

// runPass runs one pass under the per-tenant lock with the configured
// deadline, retrying transient failures with exponential backoff. If
// a pass is already in flight the new one is skipped, not queued.
func (s *Scheduler) runPass(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.Debug("Sync pass skipped: previous pass still running",
			zap.String("tenant_id", s.tenantID))
		return
	}
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= s.maxTries; attempt++ {
		passCtx := ctx
		var cancel context.CancelFunc
		if s.deadline > 0 {
			passCtx, cancel = context.WithTimeout(ctx, s.deadline)
		}
		lastErr = s.pass(passCtx)
		if cancel != nil {
			cancel()
		}
		if lastErr == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if attempt < s.maxTries {
			wait := s.backoff * (1 << (attempt - 1))
			s.logger.Warn("Sync pass failed, retrying",
				zap.String("tenant_id", s.tenantID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr))
			if !s.sleep(ctx, wait) {
				return
			}
		}
	}
	s.logger.Error("Sync pass failed after max attempts, operator attention required",
		zap.String("tenant_id", s.tenantID),
		zap.Int("attempts", s.maxTries),
		zap.Error(lastErr))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
