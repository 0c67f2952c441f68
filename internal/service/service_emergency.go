package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/validators"
	"github.com/compvault/compvault/models"
)

// emergencySyncService implements [EmergencySyncService]. Batches at or
// below the synchronous limit are applied through the reconciler before the
// response is written; larger batches are accepted onto a buffered queue
// drained by a background goroutine, because the sender is likely a page in
// its unload phase that cannot wait.
type emergencySyncService struct {
	reconciler ReconcileService
	validator  validators.Validator
	logger     *logger.Logger

	syncLimit int
	queue     chan queuedBatch
}

type queuedBatch struct {
	userID     int64
	operations []models.QueuedOperation
}

const (
	defaultEmergencySyncLimit = 10
	emergencyQueueCapacity    = 256
	asyncBatchTimeout         = 30 * time.Second
)

// NewEmergencySyncService constructs an [EmergencySyncService] and starts
// its drain goroutine; call Stop via the returned service's Close when
// shutting the server down. Zero limit falls back to the default.
func NewEmergencySyncService(ctx context.Context, reconciler ReconcileService, cfg config.Server, logger *logger.Logger) EmergencySyncService {
	limit := cfg.EmergencySyncLimit
	if limit <= 0 {
		limit = defaultEmergencySyncLimit
	}

	s := &emergencySyncService{
		reconciler: reconciler,
		validator:  validators.NewRecordValidator(),
		logger:     logger,
		syncLimit:  limit,
		queue:      make(chan queuedBatch, emergencyQueueCapacity),
	}

	go s.drain(ctx)

	return s
}

// Flush accepts one emergency batch. Small batches are applied in order
// before returning (Applied set); large ones are queued (Queued set). The
// caller maps Applied to HTTP 200 and Queued to HTTP 202.
func (s *emergencySyncService) Flush(ctx context.Context, userID int64, req models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
	if err := s.validator.Validate(ctx, req); err != nil {
		return models.EmergencyFlushResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if len(req.Operations) <= s.syncLimit {
		if err := s.apply(ctx, userID, req.Operations); err != nil {
			return models.EmergencyFlushResponse{}, err
		}
		return models.EmergencyFlushResponse{Applied: len(req.Operations)}, nil
	}

	select {
	case s.queue <- queuedBatch{userID: userID, operations: req.Operations}:
		return models.EmergencyFlushResponse{Queued: len(req.Operations)}, nil
	default:
		return models.EmergencyFlushResponse{}, fmt.Errorf("%w: emergency queue is full", ErrCapacity)
	}
}

// apply replays the batch through the reconciler in queue order. Dedup
// outcomes are fine (the client may have flushed operations it already
// delivered); only hard failures abort the batch.
func (s *emergencySyncService) apply(ctx context.Context, userID int64, operations []models.QueuedOperation) error {
	for i, op := range operations {
		var err error
		switch op.Kind {
		case models.OperationCreate:
			req := *op.Upsert
			req.UserID = userID
			_, err = s.reconciler.Upsert(ctx, req)
		case models.OperationUpdate, models.OperationDelete:
			req := *op.Update
			req.UserID = userID
			_, err = s.reconciler.Update(ctx, req)
		default:
			err = fmt.Errorf("%w: %q", ErrValidationUnknownOperation, op.Kind)
		}
		if err != nil {
			return fmt.Errorf("emergency batch operation %d: %w", i, err)
		}
	}

	return nil
}

// drain applies queued oversized batches one at a time until ctx is done.
func (s *emergencySyncService) drain(ctx context.Context) {
	log := s.logger.With().Str("func", "emergencySyncService.drain").Logger()

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("abandoned", len(s.queue)).Msg("emergency drain stopped")
			return
		case batch := <-s.queue:
			batchCtx, cancel := context.WithTimeout(ctx, asyncBatchTimeout)
			err := s.apply(batchCtx, batch.userID, batch.operations)
			cancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).
					Int64("user_id", batch.userID).
					Int("length", len(batch.operations)).
					Msg("queued emergency batch failed")
				continue
			}
			log.Info().
				Int64("user_id", batch.userID).
				Int("length", len(batch.operations)).
				Msg("queued emergency batch applied")
		}
	}
}
