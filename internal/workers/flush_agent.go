package workers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/compvault/compvault/internal/adapter"
	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/service"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/models"
)

// flushAgent is the out-of-page delivery path: it drains the durable
// flush queue the sync engine quarantines failed operations onto, and
// replays them against the remote authority one at a time.
//
// Head-of-line order is preserved: entries are peeked, delivered, and
// only then acknowledged off the queue, so a recoverable failure (or a
// teardown mid-delivery) leaves the entry at the head for the next tick.
// Only entries the remote permanently rejects (or that cannot be decoded
// at all) are dropped.
type flushAgent struct {
	queue  store.FlushQueueRepository
	remote adapter.ServerAdapter
	bus    *bus.Bus
	logger *logger.Logger

	ctx          context.Context
	queueName    string
	pollInterval time.Duration
}

const defaultPollInterval = 30 * time.Second

// NewFlushAgent constructs the flush agent worker. ctx bounds its
// lifetime; zero config values fall back to the defaults.
func NewFlushAgent(ctx context.Context, queue store.FlushQueueRepository, remote adapter.ServerAdapter, b *bus.Bus, cfg config.AgentFlush, logger *logger.Logger) Worker {
	if cfg.QueueName == "" {
		cfg.QueueName = service.FlushQueueName
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	return &flushAgent{
		queue:        queue,
		remote:       remote,
		bus:          b,
		logger:       logger,
		ctx:          ctx,
		queueName:    cfg.QueueName,
		pollInterval: cfg.PollInterval,
	}
}

// Run registers the agent on its queue and starts the poll loop in a
// background goroutine.
func (a *flushAgent) Run() {
	log := a.logger.With().Str("func", "flushAgent.Run").Str("queue", a.queueName).Logger()

	if _, err := a.queue.Len(a.ctx, a.queueName); err != nil {
		log.Error().Err(err).Msg("durable queue unreachable, flush agent not started")
		a.publish(models.FlushRegisterFailed{Queue: a.queueName, Reason: err.Error(), At: time.Now()})
		return
	}

	a.publish(models.FlushRegistered{Queue: a.queueName, At: time.Now()})
	log.Info().Dur("poll_interval", a.pollInterval).Msg("flush agent registered")

	go a.loop()
}

func (a *flushAgent) loop() {
	t := time.NewTicker(a.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-t.C:
			a.drainOnce()
		}
	}
}

// drainOnce replays queue entries until the queue is empty or a
// recoverable failure tells us to wait for the next tick.
func (a *flushAgent) drainOnce() {
	log := a.logger.With().Str("func", "flushAgent.drainOnce").Str("queue", a.queueName).Logger()

	for {
		id, payload, err := a.queue.PeekFront(a.ctx, a.queueName)
		if err != nil {
			if !errors.Is(err, store.ErrQueueEmpty) {
				log.Error().Err(err).Msg("reading durable queue")
			}
			return
		}

		var op models.QueuedOperation
		if err := json.Unmarshal(payload, &op); err != nil {
			// undecodable entries would wedge the queue forever
			log.Error().Err(err).Msg("dropping undecodable queue entry")
			if !a.acknowledge(id) {
				return
			}
			continue
		}

		_, err = a.remote.EmergencyFlush(a.ctx, models.EmergencyFlushRequest{
			Operations: []models.QueuedOperation{op},
			Length:     1,
		})
		if err == nil {
			if !a.acknowledge(id) {
				return
			}
			a.publish(deliveredEvent(op))
			log.Info().Str("kind", string(op.Kind)).Msg("quarantined operation delivered")
			continue
		}

		if isRecoverable(err) {
			// the entry never left the head; retry next tick
			a.publish(models.SyncFailed{Reason: err.Error(), Permanent: false, At: time.Now()})
			log.Warn().Err(err).Msg("recoverable failure, waiting for next tick")
			return
		}

		if !a.acknowledge(id) {
			return
		}
		a.publish(models.SyncFailed{Reason: err.Error(), Permanent: true, At: time.Now()})
		log.Error().Err(err).Str("kind", string(op.Kind)).Msg("remote permanently rejected operation, dropping")
	}
}

// acknowledge deletes a consumed entry. A failed delete leaves the same
// entry at the head, so the caller must stop draining rather than spin.
func (a *flushAgent) acknowledge(id int64) bool {
	if err := a.queue.Acknowledge(a.ctx, id); err != nil {
		a.logger.Error().Err(err).
			Str("func", "flushAgent.acknowledge").
			Str("queue", a.queueName).
			Int64("entry_id", id).
			Msg("acknowledging consumed queue entry")
		return false
	}
	return true
}

// deliveredEvent builds the success notification for a replayed entry.
func deliveredEvent(op models.QueuedOperation) models.Event {
	e := models.SyncSucceeded{At: time.Now()}
	switch {
	case op.Upsert != nil:
		e.RecordLocalID = op.Upsert.LocalID
	case op.Update != nil:
		e.RecordID = op.Update.ID
	}
	return e
}

func (a *flushAgent) publish(event models.Event) {
	if a.bus != nil {
		a.bus.Publish(event)
	}
}

// isRecoverable reports whether the delivery failure is worth retrying
// from the durable queue.
func isRecoverable(err error) bool {
	return errors.Is(err, adapter.ErrServerUnavailable) ||
		errors.Is(err, adapter.ErrTimeout) ||
		errors.Is(err, adapter.ErrCapacity)
}
