package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

// alertService counts reconcile failures per user and record type inside a
// trailing window. Crossing the threshold emits a high-severity log line and
// publishes [models.ReconcileAlert] on the bus; the counter resets so the
// alert fires once per burst instead of on every subsequent failure.
type alertService struct {
	cfg    config.Alerts
	bus    *bus.Bus
	logger *logger.Logger

	now func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
}

const (
	defaultFailureWindow    = 15 * time.Minute
	defaultFailureThreshold = 5
)

// NewAlertService constructs an [AlertService]. Zero config values fall
// back to the defaults. The bus may be nil; alerts are then log-only.
func NewAlertService(cfg config.Alerts, b *bus.Bus, logger *logger.Logger) AlertService {
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = defaultFailureWindow
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}

	return &alertService{
		cfg:      cfg,
		bus:      b,
		logger:   logger,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

// RecordFailure registers one reconcile failure. Never blocks the caller on
// anything slower than a map update; publishing is synchronous on the bus
// but handlers there are expected to be cheap.
func (s *alertService) RecordFailure(ctx context.Context, userID int64, recordType models.RecordType) {
	now := s.now()
	key := fmt.Sprintf("%d/%s", userID, recordType)

	s.mu.Lock()
	recent := pruneBefore(s.failures[key], now.Add(-s.cfg.FailureWindow))
	recent = append(recent, now)

	if len(recent) < s.cfg.FailureThreshold {
		s.failures[key] = recent
		s.mu.Unlock()
		return
	}

	count := len(recent)
	delete(s.failures, key)
	s.mu.Unlock()

	logger.FromContext(ctx).Error().
		Str("func", "alertService.RecordFailure").
		Int64("user_id", userID).
		Str("type", string(recordType)).
		Int("failures", count).
		Dur("window", s.cfg.FailureWindow).
		Msg("reconcile failure threshold crossed; recommend pausing writes for this user/type")

	if s.bus != nil {
		s.bus.Publish(models.ReconcileAlert{
			UserID:   userID,
			Type:     recordType,
			Failures: count,
			Window:   s.cfg.FailureWindow,
			At:       now,
		})
	}
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
