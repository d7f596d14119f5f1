// Copyright (c) 2025 Justin Cranford

package gitops

import (
	"context"
	"log/slog"
	"time"
)

// SyncScheduler runs a background loop that wakes on whichever comes
// first: a periodic interval, or an explicit Trigger() call, and
// invokes the reconciler (spec §4.11). A zero interval disables the
// periodic leg entirely — only explicit triggers fire.
type SyncScheduler struct {
	reconciler *GitReconciler
	interval   time.Duration
	trigger    chan struct{}
	logger     *slog.Logger
}

// NewSyncScheduler builds a scheduler around reconciler. A nil logger
// falls back to slog.Default().
func NewSyncScheduler(reconciler *GitReconciler, interval time.Duration, logger *slog.Logger) *SyncScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncScheduler{
		reconciler: reconciler,
		interval:   interval,
		trigger:    make(chan struct{}, 1),
		logger:     logger,
	}
}

// Trigger requests an out-of-band reconciliation. Non-blocking: a
// trigger already pending is not duplicated.
func (s *SyncScheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, reconciling on every tick of the
// configured interval and on every Trigger() call.
func (s *SyncScheduler) Run(ctx context.Context) {
	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.reconcileOnce(ctx)
		case <-s.trigger:
			s.reconcileOnce(ctx)
		}
	}
}

func (s *SyncScheduler) reconcileOnce(ctx context.Context) {
	changed, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		s.logger.Error("gitops sync failed", "error", err)
		return
	}
	s.logger.Info("gitops sync completed", "changed", changed)
}
