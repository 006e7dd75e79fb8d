package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nexushq/nexus/internal/store"
)

// HousekeepingService periodically clears expired password-reset tokens
// and prunes audit rows past the retention window.
type HousekeepingService struct {
	Store          store.Store
	Logger         *slog.Logger
	Interval       time.Duration
	AuditRetention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService builds the service. Interval defaults to 1 hour,
// audit retention to 90 days.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval, auditRetention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if auditRetention <= 0 {
		auditRetention = 90 * 24 * time.Hour
	}

	return &HousekeepingService{
		Store:          st,
		Logger:         logger,
		Interval:       interval,
		AuditRetention: auditRetention,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress pass finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup runs each task independently so one failure doesn't stop the rest.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if n, err := s.Store.Users().ClearExpiredResetTokens(ctx, time.Now().UTC()); err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
	} else if n > 0 {
		s.Logger.Info("cleared expired reset tokens", "count", n)
	}

	cutoff := time.Now().UTC().Add(-s.AuditRetention)
	if n, err := s.Store.AuditLogs().DeleteOlderThan(ctx, cutoff); err != nil {
		s.Logger.Error("failed to prune audit log", "error", err)
	} else if n > 0 {
		s.Logger.Info("pruned audit log", "count", n, "cutoff", cutoff)
	}
}
