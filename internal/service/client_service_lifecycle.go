package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

// lifecycleMonitor implements [LifecycleMonitor]. It converts page and
// connectivity transitions into sync triggers, each with its own debounce:
//
//   - hide/unload: emergency path, zero debounce — the page may terminate
//     within milliseconds;
//   - visibility loss: short debounce so rapid tab-switch flicker does not
//     start cycles;
//   - visibility return: immediate regular sync;
//   - online: debounced to coalesce connectivity flapping;
//   - offline: immediate, marks the engine offline;
//   - manual: configurable debounce.
//
// The emergency path waits at most FlushTimeout for the in-flight flush; it
// must never block page unload indefinitely.
type lifecycleMonitor struct {
	engine SyncEngine
	cfg    config.AgentLifecycle
	logger *logger.Logger

	// onlineDebounce originates in the sync configuration so the flapping
	// window is defined in one place.
	onlineDebounce time.Duration

	flushing atomic.Bool

	mu     sync.Mutex
	timers map[models.TriggerKind]*time.Timer
}

const (
	defaultVisibilityDebounce = 500 * time.Millisecond
	defaultManualDebounce     = time.Second
	defaultOnlineDebounce     = time.Second
	defaultFlushTimeout       = 5 * time.Second
)

// NewLifecycleMonitor constructs a [LifecycleMonitor]. Zero config values
// fall back to the defaults; onlineDebounce comes from the sync config to
// keep the flapping window in one place.
func NewLifecycleMonitor(engine SyncEngine, cfg config.AgentLifecycle, onlineDebounce time.Duration, logger *logger.Logger) LifecycleMonitor {
	if cfg.VisibilityDebounce <= 0 {
		cfg.VisibilityDebounce = defaultVisibilityDebounce
	}
	if cfg.ManualDebounce <= 0 {
		cfg.ManualDebounce = defaultManualDebounce
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = defaultFlushTimeout
	}

	if onlineDebounce <= 0 {
		onlineDebounce = defaultOnlineDebounce
	}

	return &lifecycleMonitor{
		engine:         engine,
		cfg:            cfg,
		onlineDebounce: onlineDebounce,
		logger:         logger,
		timers:         make(map[models.TriggerKind]*time.Timer),
	}
}

// Trigger registers one lifecycle transition and schedules the matching
// sync path.
func (m *lifecycleMonitor) Trigger(ctx context.Context, kind models.TriggerKind) {
	log := logger.FromContext(ctx)
	log.Debug().Str("func", "lifecycleMonitor.Trigger").Str("kind", string(kind)).Msg("lifecycle transition")

	switch kind {
	case models.TriggerHide, models.TriggerUnload:
		m.RequestEmergencySync(ctx)

	case models.TriggerVisibilityLost:
		m.engine.SetVisible(false)
		m.debounce(kind, m.cfg.VisibilityDebounce, func() {
			_ = m.engine.Sync(context.WithoutCancel(ctx))
		})

	case models.TriggerVisibilityGained:
		m.engine.SetVisible(true)
		go func() { _ = m.engine.Sync(context.WithoutCancel(ctx)) }()

	case models.TriggerOnline:
		m.debounce(kind, m.onlineDebounce, func() {
			m.engine.SetOnline(true)
			_ = m.engine.Sync(context.WithoutCancel(ctx))
		})

	case models.TriggerOffline:
		m.cancelTimer(models.TriggerOnline)
		m.engine.SetOnline(false)

	case models.TriggerManual:
		m.debounce(kind, m.cfg.ManualDebounce, func() {
			_ = m.engine.Sync(context.WithoutCancel(ctx))
		})

	default:
		log.Warn().Str("func", "lifecycleMonitor.Trigger").Str("kind", string(kind)).Msg("unknown trigger ignored")
	}
}

// RequestEmergencySync flushes the pending queue with a bound on how long
// the caller waits. A request arriving while one is in flight is a no-op.
func (m *lifecycleMonitor) RequestEmergencySync(ctx context.Context) {
	log := logger.FromContext(ctx)

	if !m.flushing.CompareAndSwap(false, true) {
		log.Debug().Str("func", "lifecycleMonitor.RequestEmergencySync").Msg("emergency flush already in flight")
		return
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.FlushTimeout)

	done := make(chan error, 1)
	go func() {
		defer m.flushing.Store(false)
		defer cancel()
		done <- m.engine.EmergencyFlush(flushCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Error().Err(err).
				Str("func", "lifecycleMonitor.RequestEmergencySync").
				Msg("emergency flush failed; remainder is on the durable queue")
		}
	case <-time.After(m.cfg.FlushTimeout):
		// the page is about to go away; the flush keeps running in the
		// background and whatever it cannot finish lands on the durable
		// queue
		log.Warn().
			Str("func", "lifecycleMonitor.RequestEmergencySync").
			Dur("timeout", m.cfg.FlushTimeout).
			Msg("emergency flush still running at timeout, abandoning wait")
	}
}

// Stop cancels all pending debounce timers.
func (m *lifecycleMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for kind, t := range m.timers {
		t.Stop()
		delete(m.timers, kind)
	}
}

// debounce (re)arms the timer for kind; only the last transition inside the
// window fires.
func (m *lifecycleMonitor) debounce(kind models.TriggerKind, d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[kind]; ok {
		t.Stop()
	}
	m.timers[kind] = time.AfterFunc(d, fn)
}

func (m *lifecycleMonitor) cancelTimer(kind models.TriggerKind) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[kind]; ok {
		t.Stop()
		delete(m.timers, kind)
	}
}
