package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

// pendingQueueRepository is the SQLite-backed implementation of
// [PendingQueueRepository]. FIFO ordering follows the autoincrement id.
type pendingQueueRepository struct {
	*DB
	logger *logger.Logger
}

// NewPendingQueueRepository constructs a [PendingQueueRepository] backed by
// the provided database connection and logger.
func NewPendingQueueRepository(db *DB, logger *logger.Logger) PendingQueueRepository {
	return &pendingQueueRepository{
		DB:     db,
		logger: logger,
	}
}

// Enqueue appends an operation to the queue.
func (r *pendingQueueRepository) Enqueue(ctx context.Context, op models.PendingOperation) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, enqueuePendingOperation,
		op.UserID,
		op.Kind,
		op.RecordLocalID,
		op.Payload,
		op.CreatedAt,
		op.Attempts,
		op.LastError,
	); err != nil {
		log.Err(err).
			Str("func", "pendingQueueRepository.Enqueue").
			Int64("user_id", op.UserID).
			Str("kind", string(op.Kind)).
			Msg("failed to enqueue pending operation")
		if isSQLiteCapacityError(err) {
			return fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// List returns the user's queued operations, oldest first.
func (r *pendingQueueRepository) List(ctx context.Context, userID int64) ([]models.PendingOperation, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listPendingOperations, userID)
	if err != nil {
		log.Err(err).
			Str("func", "pendingQueueRepository.List").
			Int64("user_id", userID).
			Msg("failed to execute query for listing pending operations")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.PendingOperation, 0, 16)

	for rows.Next() {
		var op models.PendingOperation

		if scanErr := rows.Scan(
			&op.ID,
			&op.UserID,
			&op.Kind,
			&op.RecordLocalID,
			&op.Payload,
			&op.CreatedAt,
			&op.Attempts,
			&op.LastError,
		); scanErr != nil {
			log.Err(scanErr).
				Str("func", "pendingQueueRepository.List").
				Int64("user_id", userID).
				Msg("failed to scan pending operation row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		results = append(results, op)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "pendingQueueRepository.List").
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// Dequeue removes a consumed operation.
func (r *pendingQueueRepository) Dequeue(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, dequeuePendingOperation, id)
	if err != nil {
		log.Err(err).
			Str("func", "pendingQueueRepository.Dequeue").
			Int64("operation_id", id).
			Msg("failed to dequeue pending operation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkQueueRowAffected(result)
}

// MarkAttempt increments the attempt counter and records the failure message.
func (r *pendingQueueRepository) MarkAttempt(ctx context.Context, id int64, lastError string) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, markPendingAttempt, lastError, id)
	if err != nil {
		log.Err(err).
			Str("func", "pendingQueueRepository.MarkAttempt").
			Int64("operation_id", id).
			Msg("failed to mark pending attempt")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkQueueRowAffected(result)
}

// enqueuePendingTx inserts a pending operation inside an already-open
// transaction. Shared by the record repository's atomic write paths.
func enqueuePendingTx(ctx context.Context, tx *sql.Tx, op models.PendingOperation) error {
	if _, err := tx.ExecContext(ctx, enqueuePendingOperation,
		op.UserID,
		op.Kind,
		op.RecordLocalID,
		op.Payload,
		op.CreatedAt,
		op.Attempts,
		op.LastError,
	); err != nil {
		if isSQLiteCapacityError(err) {
			return fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// checkQueueRowAffected normalises a zero-rows-affected queue update to
// [ErrQueueEmpty].
func checkQueueRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCountingAffectedRows, err)
	}
	if affected == 0 {
		return ErrQueueEmpty
	}

	return nil
}
