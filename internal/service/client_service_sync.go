package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/compvault/compvault/internal/adapter"
	"github.com/compvault/compvault/internal/bus"
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/models"
)

// FlushQueueName keys the durable queue shared between the sync engine
// (producer of failed operations) and the background flush agent
// (consumer).
const FlushQueueName = "emergency-flush"

// syncEngine implements [SyncEngine]. One cycle drains the pending queue
// oldest-first; operations for the same record therefore reach the remote
// in enqueue order.
//
// Failure handling per operation:
//   - transient (network, timeout): retried in place with exponential
//     backoff up to the attempt budget, then the cycle aborts so order is
//     preserved for the next run;
//   - permanent (validation, auth): the operation is moved to the durable
//     flush queue and the cycle continues.
type syncEngine struct {
	records store.LocalRecordRepository
	pending store.PendingQueueRepository
	flush   store.FlushQueueRepository
	remote  adapter.ServerAdapter
	bus     *bus.Bus
	logger  *logger.Logger

	userID int64
	cfg    config.AgentSync

	// syncing guards single-flight: the cycle in progress will pick up
	// anything enqueued meanwhile on its next run.
	syncing atomic.Bool

	mu    sync.RWMutex
	state models.SyncState

	now func() time.Time
}

const (
	defaultMaxAttempts = 5
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffMax  = 30 * time.Second
)

// NewSyncEngine constructs a [SyncEngine]. Zero config values fall back to
// the defaults. The engine starts optimistic: online until told otherwise.
func NewSyncEngine(storages *store.ClientStorages, remote adapter.ServerAdapter, b *bus.Bus, cfg *config.AgentConfig, logger *logger.Logger) SyncEngine {
	sc := cfg.Sync
	if sc.MaxAttempts <= 0 {
		sc.MaxAttempts = defaultMaxAttempts
	}
	if sc.BackoffBase <= 0 {
		sc.BackoffBase = defaultBackoffBase
	}
	if sc.BackoffMax <= 0 {
		sc.BackoffMax = defaultBackoffMax
	}

	engine := &syncEngine{
		records: storages.RecordRepository,
		pending: storages.PendingQueue,
		flush:   storages.FlushQueue,
		remote:  remote,
		bus:     b,
		logger:  logger,
		userID:  cfg.UserID,
		cfg:     sc,
		state: models.SyncState{
			IsOnline:  true,
			IsVisible: true,
			Status:    models.EngineIdle,
		},
		now: time.Now,
	}

	// the flush agent announces itself on the bus; the engine mirrors
	// that into SyncState so callers can tell whether quarantined
	// operations have a delivery path
	if b != nil {
		b.Subscribe(func(event models.Event) {
			switch event.Kind() {
			case models.EventFlushRegistered:
				engine.setFlushAgentActive(true)
			case models.EventFlushRegisterFailed:
				engine.setFlushAgentActive(false)
			}
		})
	}

	return engine
}

func (s *syncEngine) setFlushAgentActive(active bool) {
	s.mu.Lock()
	s.state.FlushAgentActive = active
	s.mu.Unlock()
}

// Sync runs one drain cycle. A trigger arriving mid-cycle is coalesced.
func (s *syncEngine) Sync(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if !s.syncing.CompareAndSwap(false, true) {
		log.Debug().Str("func", "syncEngine.Sync").Msg("cycle already in flight, trigger coalesced")
		return nil
	}
	defer s.syncing.Store(false)

	if !s.online() {
		s.setStatus(models.EngineOffline)
		log.Debug().Str("func", "syncEngine.Sync").Msg("offline, cycle skipped")
		return nil
	}

	s.setStatus(models.EngineSyncing)

	operations, err := s.pending.List(ctx, s.userID)
	if err != nil {
		s.setStatus(models.EngineError)
		return fmt.Errorf("list pending operations: %w", err)
	}

	for _, op := range operations {
		if err := s.deliver(ctx, op); err != nil {
			if isTransientError(err) {
				// order matters: leave this and everything behind it
				// for the next cycle
				s.setStatus(models.EngineError)
				log.Warn().Err(err).
					Str("func", "syncEngine.Sync").
					Int64("operation_id", op.ID).
					Msg("transient failure exhausted retries, cycle aborted")
				return nil
			}

			if err := s.quarantine(ctx, op, err); err != nil {
				s.setStatus(models.EngineError)
				return err
			}
		}
	}

	s.setStatus(models.EngineIdle)
	return nil
}

// deliver pushes one operation to the remote, retrying transient failures
// with exponential backoff inside the cycle's attempt budget.
func (s *syncEngine) deliver(ctx context.Context, op models.PendingOperation) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.BackoffBase
	policy.MaxInterval = s.cfg.BackoffMax

	attempt := func() error {
		err := s.attemptOnce(ctx, op)
		if err == nil {
			return nil
		}
		if isTransientError(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(attempt, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(s.cfg.MaxAttempts-1)), ctx))
	if err == nil {
		return nil
	}

	if markErr := s.pending.MarkAttempt(ctx, op.ID, err.Error()); markErr != nil {
		logger.FromContext(ctx).Error().Err(markErr).
			Str("func", "syncEngine.deliver").
			Int64("operation_id", op.ID).
			Msg("recording failed attempt")
	}
	if markErr := s.records.MarkStatus(ctx, s.userID, op.RecordLocalID, models.SyncStatusError); markErr != nil &&
		!errors.Is(markErr, store.ErrRecordNotFound) {
		logger.FromContext(ctx).Error().Err(markErr).
			Str("func", "syncEngine.deliver").
			Str("local_id", op.RecordLocalID).
			Msg("marking record errored")
	}

	s.publish(models.SyncFailed{
		RecordLocalID: op.RecordLocalID,
		Reason:        err.Error(),
		Permanent:     !isTransientError(err),
		At:            s.now(),
	})

	return err
}

// attemptOnce makes a single delivery attempt and applies the remote
// acknowledgement to the local store.
func (s *syncEngine) attemptOnce(ctx context.Context, op models.PendingOperation) error {
	switch op.Kind {
	case models.OperationCreate:
		var req models.UpsertRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return fmt.Errorf("%w: corrupted create payload: %w", ErrValidation, err)
		}

		resp, err := s.remote.Upsert(ctx, req)
		if err != nil {
			return classifySyncError(err)
		}

		return s.acknowledge(ctx, op, resp.Record, resp.Outcome.Deduplicated())

	case models.OperationUpdate, models.OperationDelete:
		var req models.UpdateRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return fmt.Errorf("%w: corrupted update payload: %w", ErrValidation, err)
		}

		// created offline: the server id only exists locally after the
		// create was acknowledged, so resolve it at delivery time
		if req.ID == "" {
			record, err := s.records.Get(ctx, s.userID, op.RecordLocalID)
			if err != nil {
				return fmt.Errorf("%w: resolving server id: %w", ErrValidation, err)
			}
			req.ID = record.ID
		}

		resp, err := s.remote.Update(ctx, req)
		if err != nil {
			return classifySyncError(err)
		}

		return s.acknowledge(ctx, op, resp.Record, false)

	default:
		return fmt.Errorf("%w: %q", ErrValidationUnknownOperation, op.Kind)
	}
}

// acknowledge marks the local record synced and consumes the operation.
func (s *syncEngine) acknowledge(ctx context.Context, op models.PendingOperation, canonical models.Record, deduplicated bool) error {
	now := s.now().UTC()

	err := s.records.MarkSynced(ctx, s.userID, op.RecordLocalID, canonical.ID, canonical.Version, now)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return classifySyncError(err)
	}

	if err := s.pending.Dequeue(ctx, op.ID); err != nil {
		return classifySyncError(err)
	}

	s.publish(models.SyncSucceeded{
		RecordLocalID: op.RecordLocalID,
		RecordID:      canonical.ID,
		Deduplicated:  deduplicated,
		At:            now,
	})

	return nil
}

// quarantine moves a permanently failed operation to the durable flush
// queue so the background agent can keep trying out of band.
func (s *syncEngine) quarantine(ctx context.Context, op models.PendingOperation, cause error) error {
	queued, err := queuedOperation(op)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(queued)
	if err != nil {
		return fmt.Errorf("marshal quarantined operation: %w", err)
	}

	if err := s.flush.PushBack(ctx, FlushQueueName, payload); err != nil {
		return fmt.Errorf("quarantine operation %d: %w", op.ID, err)
	}

	if err := s.pending.Dequeue(ctx, op.ID); err != nil {
		return fmt.Errorf("dequeue quarantined operation %d: %w", op.ID, err)
	}

	logger.FromContext(ctx).Warn().
		Str("func", "syncEngine.quarantine").
		Int64("operation_id", op.ID).
		Str("local_id", op.RecordLocalID).
		Err(cause).
		Msg("operation moved to durable flush queue")

	return nil
}

// EmergencyFlush sends the entire pending queue as one batch bounded by
// ctx. On any failure the batch is preserved on the durable flush queue so
// the background agent can replay it after the caller is gone.
func (s *syncEngine) EmergencyFlush(ctx context.Context) error {
	log := logger.FromContext(ctx)

	operations, err := s.pending.List(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("list pending operations: %w", err)
	}
	if len(operations) == 0 {
		return nil
	}

	entries := make([]flushEntry, 0, len(operations))
	for _, op := range operations {
		queued, err := queuedOperation(op)
		if err != nil {
			log.Error().Err(err).
				Str("func", "syncEngine.EmergencyFlush").
				Int64("operation_id", op.ID).
				Msg("skipping corrupted pending operation")
			continue
		}
		entries = append(entries, flushEntry{source: op, queued: queued})
	}
	if len(entries) == 0 {
		return nil
	}

	batch := make([]models.QueuedOperation, len(entries))
	for i := 0; i < len(entries); i++ {
		batch[i] = entries[i].queued
	}

	resp, err := s.remote.EmergencyFlush(ctx, models.EmergencyFlushRequest{
		Operations: batch,
		Length:     len(batch),
	})
	if err != nil {
		return s.preserveBatch(ctx, entries, classifySyncError(err))
	}

	if resp.Queued > 0 {
		// 202: the server parked the batch on its in-memory queue and
		// confirmed nothing. Keep the operations pending; the next cycle
		// re-sends them and the dedup ladder absorbs any replay.
		log.Info().
			Str("func", "syncEngine.EmergencyFlush").
			Int("queued", resp.Queued).
			Msg("emergency batch queued remotely, operations kept pending until confirmed")
		return nil
	}

	now := s.now().UTC()
	for _, e := range entries {
		if err := s.pending.Dequeue(ctx, e.source.ID); err != nil {
			log.Error().Err(err).
				Str("func", "syncEngine.EmergencyFlush").
				Int64("operation_id", e.source.ID).
				Msg("dequeue after emergency flush")
		}
		if err := s.records.MarkStatus(ctx, s.userID, e.source.RecordLocalID, models.SyncStatusSynced); err != nil &&
			!errors.Is(err, store.ErrRecordNotFound) {
			log.Error().Err(err).
				Str("func", "syncEngine.EmergencyFlush").
				Str("local_id", e.source.RecordLocalID).
				Msg("marking record synced after emergency flush")
		}
	}

	s.publish(models.EmergencySyncSucceeded{Flushed: len(entries), At: now})
	return nil
}

// flushEntry pairs a batch element with the pending row it was built from,
// so queue bookkeeping stays aligned when corrupted rows are skipped.
type flushEntry struct {
	source models.PendingOperation
	queued models.QueuedOperation
}

// preserveBatch lands a failed emergency batch on the durable flush queue,
// keeping queue order.
func (s *syncEngine) preserveBatch(ctx context.Context, entries []flushEntry, cause error) error {
	log := logger.FromContext(ctx)

	preserved := 0
	for _, e := range entries {
		payload, err := json.Marshal(e.queued)
		if err != nil {
			log.Error().Err(err).
				Str("func", "syncEngine.preserveBatch").
				Msg("marshal queued operation")
			continue
		}
		if err := s.flush.PushBack(ctx, FlushQueueName, payload); err != nil {
			log.Error().Err(err).
				Str("func", "syncEngine.preserveBatch").
				Msg("push to durable flush queue")
			continue
		}
		if err := s.pending.Dequeue(ctx, e.source.ID); err != nil {
			log.Error().Err(err).
				Str("func", "syncEngine.preserveBatch").
				Int64("operation_id", e.source.ID).
				Msg("dequeue preserved operation")
		}
		preserved++
	}

	s.publish(models.EmergencySyncFailed{
		Remaining: preserved,
		Reason:    cause.Error(),
		At:        s.now(),
	})

	return fmt.Errorf("emergency flush failed, %d operation(s) preserved on durable queue: %w", preserved, cause)
}

// SetOnline records the connectivity signal. Transitions do not start a
// cycle by themselves; the lifecycle monitor decides when to sync.
func (s *syncEngine) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsOnline = online
	if !online {
		s.state.Status = models.EngineOffline
	} else if s.state.Status == models.EngineOffline {
		s.state.Status = models.EngineIdle
	}
}

// SetVisible records the foreground signal.
func (s *syncEngine) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsVisible = visible
}

// State returns a copy of the engine's ephemeral state.
func (s *syncEngine) State() models.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *syncEngine) online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsOnline
}

func (s *syncEngine) setStatus(status models.EngineStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = status
}

func (s *syncEngine) publish(event models.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// queuedOperation converts a pending queue entry into its wire form.
func queuedOperation(op models.PendingOperation) (models.QueuedOperation, error) {
	queued := models.QueuedOperation{
		Kind:         op.Kind,
		EnqueuedAtMS: op.CreatedAt.UnixMilli(),
	}

	switch op.Kind {
	case models.OperationCreate:
		var req models.UpsertRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return models.QueuedOperation{}, fmt.Errorf("unmarshal create payload: %w", err)
		}
		queued.Upsert = &req
	case models.OperationUpdate, models.OperationDelete:
		var req models.UpdateRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return models.QueuedOperation{}, fmt.Errorf("unmarshal update payload: %w", err)
		}
		queued.Update = &req
	default:
		return models.QueuedOperation{}, fmt.Errorf("%w: %q", ErrValidationUnknownOperation, op.Kind)
	}

	return queued, nil
}
