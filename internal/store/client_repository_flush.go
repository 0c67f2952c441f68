package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/compvault/compvault/internal/logger"
)

// flushQueueRepository is the SQLite-backed implementation of
// [FlushQueueRepository]. Ordering is (position, id) ascending: PushBack
// appends past the maximum position, so entries come out in arrival order.
type flushQueueRepository struct {
	*DB
	logger *logger.Logger
}

// NewFlushQueueRepository constructs a [FlushQueueRepository] backed by the
// provided database connection and logger.
func NewFlushQueueRepository(db *DB, logger *logger.Logger) FlushQueueRepository {
	return &flushQueueRepository{
		DB:     db,
		logger: logger,
	}
}

// PushBack appends a payload to the named queue.
func (r *flushQueueRepository) PushBack(ctx context.Context, queue string, payload []byte) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, pushFlushBack, queue, payload); err != nil {
		log.Err(err).
			Str("func", "flushQueueRepository.PushBack").
			Str("queue", queue).
			Msg("failed to push flush queue entry")
		if isSQLiteCapacityError(err) {
			return fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// PeekFront returns the head of the named queue without removing it. The
// flush agent peeks, delivers, then acknowledges, so a crash between the
// delivery and the acknowledge leaves the entry on the queue.
func (r *flushQueueRepository) PeekFront(ctx context.Context, queue string) (int64, []byte, error) {
	log := logger.FromContext(ctx)

	var (
		id      int64
		payload []byte
	)
	if err := r.DB.QueryRowContext(ctx, peekFlushFront, queue).Scan(&id, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, ErrQueueEmpty
		}
		log.Err(err).
			Str("func", "flushQueueRepository.PeekFront").
			Str("queue", queue).
			Msg("failed to peek flush queue head")
		return 0, nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return id, payload, nil
}

// Acknowledge deletes a delivered entry by id.
func (r *flushQueueRepository) Acknowledge(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, deleteFlushEntry, id); err != nil {
		log.Err(err).
			Str("func", "flushQueueRepository.Acknowledge").
			Int64("entry_id", id).
			Msg("failed to delete acknowledged flush queue entry")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// List returns all payloads in the named queue in delivery order.
func (r *flushQueueRepository) List(ctx context.Context, queue string) ([][]byte, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listFlushEntries, queue)
	if err != nil {
		log.Err(err).
			Str("func", "flushQueueRepository.List").
			Str("queue", queue).
			Msg("failed to execute query for listing flush queue entries")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([][]byte, 0, 16)

	for rows.Next() {
		var payload []byte
		if scanErr := rows.Scan(&payload); scanErr != nil {
			log.Err(scanErr).
				Str("func", "flushQueueRepository.List").
				Str("queue", queue).
				Msg("failed to scan flush queue row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		results = append(results, payload)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "flushQueueRepository.List").
			Str("queue", queue).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// Len reports the number of entries in the named queue.
func (r *flushQueueRepository) Len(ctx context.Context, queue string) (int, error) {
	log := logger.FromContext(ctx)

	var count int
	if err := r.DB.QueryRowContext(ctx, countFlushEntries, queue).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "flushQueueRepository.Len").
			Str("queue", queue).
			Msg("failed to count flush queue entries")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}
