package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

// recordRepository is the PostgreSQL-backed implementation of
// [RecordRepository]. It executes all compensation-record operations
// directly against the "records" table using the embedded [*DB] connection.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced
// with structured fields (user_id, record id, dedup criteria).
type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository constructs a [RecordRepository] backed by the provided
// database connection and logger.
//
// The logger parameter is stored for fallback logging; most methods prefer
// the context-scoped logger obtained via [logger.FromContext].
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

// Insert persists a brand-new record. A missing ID is assigned a fresh UUID,
// and zero timestamps are stamped with the current time before writing.
func (r *recordRepository) Insert(ctx context.Context, record models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	result, err := r.DB.ExecContext(ctx, insertRecord,
		record.ID,
		record.LocalID,
		record.UserID,
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
			Str("func", "recordRepository.Insert").
			Int64("user_id", record.UserID).
			Str("record_id", record.ID).
			Str("pg_code", postgresError(err)).
			Msg("failed to insert record")
		if isPostgresCapacityError(err) {
			return models.Record{}, fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Insert").
			Int64("user_id", record.UserID).
			Msg("failed to count affected rows")
		return models.Record{}, fmt.Errorf("%w: %w", ErrCountingAffectedRows, err)
	}
	if affected == 0 {
		return models.Record{}, ErrRecordNotSaved
	}

	return record, nil
}

// Get fetches a single record by server id.
func (r *recordRepository) Get(ctx context.Context, userID int64, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getRecordByID, userID, id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, ErrRecordNotFound
		}
		log.Err(err).
			Str("func", "recordRepository.Get").
			Int64("user_id", userID).
			Str("record_id", id).
			Msg("failed to scan record row")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, nil
}

// Update overwrites the mutable fields of an existing record.
func (r *recordRepository) Update(ctx context.Context, record models.Record) (models.Record, error) {
	log := logger.FromContext(ctx)

	record.UpdatedAt = time.Now().UTC()

	result, err := r.DB.ExecContext(ctx, updateRecord,
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
		record.ID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Update").
			Int64("user_id", record.UserID).
			Str("record_id", record.ID).
			Str("pg_code", postgresError(err)).
			Msg("failed to update record")
		if isPostgresCapacityError(err) {
			return models.Record{}, fmt.Errorf("%w: %w", ErrStorageCapacity, err)
		}
		return models.Record{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Update").
			Int64("user_id", record.UserID).
			Msg("failed to count affected rows")
		return models.Record{}, fmt.Errorf("%w: %w", ErrCountingAffectedRows, err)
	}
	if affected == 0 {
		return models.Record{}, ErrRecordNotFound
	}

	return record, nil
}

// TouchSync stamps last_sync_at and sets sync_status=synced.
func (r *recordRepository) TouchSync(ctx context.Context, userID int64, id string, at time.Time) error {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, touchRecordSync, at, userID, id)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.TouchSync").
			Int64("user_id", userID).
			Str("record_id", id).
			Msg("failed to stamp sync time")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCountingAffectedRows, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// FindExactMatch implements the first (most specific) dedup lookup.
func (r *recordRepository) FindExactMatch(ctx context.Context, userID int64, recordType models.RecordType, payload models.EncryptedPayload, currency string, since time.Time) (models.Record, error) {
	query, args, err := buildExactMatchQuery(userID, recordType, payload, currency, since)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.findCandidate(ctx, "recordRepository.FindExactMatch", userID, query, args)
}

// FindLengthMatch implements the probable-content dedup lookup.
func (r *recordRepository) FindLengthMatch(ctx context.Context, userID int64, recordType models.RecordType, length int, currency string, from, to time.Time) (models.Record, error) {
	query, args, err := buildLengthMatchQuery(userID, recordType, length, currency, from, to)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.findCandidate(ctx, "recordRepository.FindLengthMatch", userID, query, args)
}

// FindByLocalID implements the client-correlation dedup lookup.
func (r *recordRepository) FindByLocalID(ctx context.Context, userID int64, recordType models.RecordType, localID string, since time.Time) (models.Record, error) {
	query, args, err := buildLocalIDQuery(userID, recordType, localID, since)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.findCandidate(ctx, "recordRepository.FindByLocalID", userID, query, args)
}

// FindNewestSince implements the same-batch dedup lookup.
func (r *recordRepository) FindNewestSince(ctx context.Context, userID int64, recordType models.RecordType, since time.Time) (models.Record, error) {
	query, args, err := buildNewestSinceQuery(userID, recordType, since)
	if err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.findCandidate(ctx, "recordRepository.FindNewestSince", userID, query, args)
}

// findCandidate runs a single-row candidate query and normalises the
// no-match case to [ErrRecordNotFound].
func (r *recordRepository) findCandidate(ctx context.Context, caller string, userID int64, query string, args []interface{}) (models.Record, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, query, args...)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Record{}, ErrRecordNotFound
		}
		log.Err(err).
			Str("func", caller).
			Int64("user_id", userID).
			Msg("failed to scan candidate row")
		return models.Record{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, nil
}

// ListByStatus returns every record of the user in the given sync status,
// oldest first.
func (r *recordRepository) ListByStatus(ctx context.Context, userID int64, status models.SyncStatus) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listRecordsByStatus, userID, status)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListByStatus").
			Int64("user_id", userID).
			Str("sync_status", string(status)).
			Msg("failed to execute query for listing records by status")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.Record, 0, 50)

	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "recordRepository.ListByStatus").
				Int64("user_id", userID).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		results = append(results, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "recordRepository.ListByStatus").
			Int64("user_id", userID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row in recordColumns order into a models.Record.
func scanRecord(row rowScanner) (models.Record, error) {
	var (
		record   models.Record
		lastSync sql.NullTime
	)

	err := row.Scan(
		&record.ID,
		&record.LocalID,
		&record.UserID,
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

// nullableTime converts an optional timestamp to its database representation.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *t, Valid: true}
}
