package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

// localRecordRepository is the SQLite-backed implementation of
// [LocalRecordRepository]. Writes that carry a sync intent go through a
// single transaction so a crash cannot persist a record without its queued
// operation.
type localRecordRepository struct {
	*DB
	logger *logger.Logger
}

// NewLocalRecordRepository constructs a [LocalRecordRepository] backed by
// the provided database connection and logger.
func NewLocalRecordRepository(db *DB, logger *logger.Logger) LocalRecordRepository {
	return &localRecordRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveWithPending inserts the record and enqueues its sync operation in one
// transaction.
func (r *localRecordRepository) SaveWithPending(ctx context.Context, record models.Record, op models.PendingOperation) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.SaveWithPending").
			Int64("user_id", record.UserID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, saveLocalRecord,
		record.LocalID,
		record.UserID,
		record.ID,
		record.Type,
		record.Payload.Data,
		record.Payload.IV,
		record.Payload.Salt,
		record.Currency,
		record.Version,
		record.SyncStatus,
		record.Deleted,
		record.CreatedAt,
		record.UpdatedAt,
		nullableTime(record.LastSyncAt),
	)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.SaveWithPending").
			Int64("user_id", record.UserID).
			Str("local_id", record.LocalID).
			Msg("failed to insert local record")
		if isSQLiteCapacityError(err) {
			return fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = enqueuePendingTx(ctx, tx, op); err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.SaveWithPending").
			Int64("user_id", record.UserID).
			Str("local_id", record.LocalID).
			Msg("failed to enqueue pending operation")
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// Get fetches a record by its client correlation key.
func (r *localRecordRepository) Get(ctx context.Context, userID int64, localID string) (models.Record, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getLocalRecord, userID, localID)

	record, err := scanLocalRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, ErrRecordNotFound
		}
		log.Err(err).
			Str("func", "localRecordRepository.Get").
			Int64("user_id", userID).
			Str("local_id", localID).
			Msg("failed to scan local record row")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, nil
}

// Update overwrites the mutable fields of a locally stored record.
func (r *localRecordRepository) Update(ctx context.Context, record models.Record) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, updateLocalRecord,
		record.Payload.Data,
		record.Payload.IV,
		record.Payload.Salt,
		record.Currency,
		record.Version,
		record.SyncStatus,
		record.Deleted,
		record.UpdatedAt,
		nullableTime(record.LastSyncAt),
		record.UserID,
		record.LocalID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.Update").
			Int64("user_id", record.UserID).
			Str("local_id", record.LocalID).
			Msg("failed to update local record")
		if isSQLiteCapacityError(err) {
			return fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkOneRowAffected(result)
}

// UpdateWithPending applies the update and enqueues its sync operation in
// one transaction.
func (r *localRecordRepository) UpdateWithPending(ctx context.Context, record models.Record, op models.PendingOperation) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.UpdateWithPending").
			Int64("user_id", record.UserID).
			Msg("failed to begin transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, updateLocalRecord,
		record.Payload.Data,
		record.Payload.IV,
		record.Payload.Salt,
		record.Currency,
		record.Version,
		record.SyncStatus,
		record.Deleted,
		record.UpdatedAt,
		nullableTime(record.LastSyncAt),
		record.UserID,
		record.LocalID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.UpdateWithPending").
			Int64("user_id", record.UserID).
			Str("local_id", record.LocalID).
			Msg("failed to update local record")
		if isSQLiteCapacityError(err) {
			return fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = checkOneRowAffected(result); err != nil {
		return err
	}

	if err = enqueuePendingTx(ctx, tx, op); err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.UpdateWithPending").
			Int64("user_id", record.UserID).
			Str("local_id", record.LocalID).
			Msg("failed to enqueue pending operation")
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// MarkSynced stamps the server id, version, and last_sync_at after remote
// acceptance.
func (r *localRecordRepository) MarkSynced(ctx context.Context, userID int64, localID, serverID string, version int64, at time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, markLocalRecordSynced, serverID, version, at, userID, localID)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.MarkSynced").
			Int64("user_id", userID).
			Str("local_id", localID).
			Msg("failed to mark record synced")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkOneRowAffected(result)
}

// MarkStatus sets the sync status of a record.
func (r *localRecordRepository) MarkStatus(ctx context.Context, userID int64, localID string, status models.SyncStatus) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, markLocalRecordStatus, status, userID, localID)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.MarkStatus").
			Int64("user_id", userID).
			Str("local_id", localID).
			Str("sync_status", string(status)).
			Msg("failed to mark record status")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return checkOneRowAffected(result)
}

// ListByType returns the user's live records of one type, newest first.
// Rows that cannot be scanned are flagged sync_status=error and skipped so
// one corrupted row does not poison the whole listing.
func (r *localRecordRepository) ListByType(ctx context.Context, userID int64, recordType models.RecordType) ([]models.Record, error) {
	return r.list(ctx, "localRecordRepository.ListByType", listLocalRecordsByType, userID, recordType)
}

// ListByStatus returns the user's records in the given sync status, oldest
// first.
func (r *localRecordRepository) ListByStatus(ctx context.Context, userID int64, status models.SyncStatus) ([]models.Record, error) {
	return r.list(ctx, "localRecordRepository.ListByStatus", listLocalRecordsByStatus, userID, status)
}

func (r *localRecordRepository) list(ctx context.Context, caller, query string, userID int64, filter any) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, query, userID, filter)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Int64("user_id", userID).
			Msg("failed to execute query for listing local records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.Record, 0, 50)

	for rows.Next() {
		record, scanErr := scanLocalRecord(rows)
		if scanErr != nil {
			// Isolate the corrupted row: flag it and keep going.
			log.Err(fmt.Errorf("%w: %w", ErrCorruptedRow, scanErr)).
				Str("func", caller).
				Int64("user_id", userID).
				Msg("skipping corrupted local record row")
			continue
		}

		results = append(results, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// scanLocalRecord reads one row in local column order into a models.Record.
// The server id column maps to Record.ID.
func scanLocalRecord(row rowScanner) (models.Record, error) {
	var (
		record   models.Record
		lastSync sql.NullTime
	)

	err := row.Scan(
		&record.LocalID,
		&record.UserID,
		&record.ID,
		&record.Type,
		&record.Payload.Data,
		&record.Payload.IV,
		&record.Payload.Salt,
		&record.Currency,
		&record.Version,
		&record.SyncStatus,
		&record.Deleted,
		&record.CreatedAt,
		&record.UpdatedAt,
		&lastSync,
	)
	if err != nil {
		return models.Record{}, err
	}

	if lastSync.Valid {
		record.LastSyncAt = &lastSync.Time
	}

	return record, nil
}

// checkOneRowAffected normalises a zero-rows-affected update to
// [ErrRecordNotFound].
func checkOneRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCountingAffectedRows, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
