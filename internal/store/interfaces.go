package store

import (
	"context"
	"time"

	"github.com/compvault/compvault/models"
)

// RecordRepository is the server-side storage contract for compensation
// records. It exposes the primitive lookups the reconciler composes into
// its layered deduplication decision, plus plain CRUD.
//
// All lookups are scoped by user and record type: deduplication never
// crosses either boundary.
type RecordRepository interface {
	// Insert persists a brand-new record and returns it with the
	// server-assigned id and timestamps filled in.
	Insert(ctx context.Context, record models.Record) (models.Record, error)

	// Get fetches a single record by server id. Returns ErrRecordNotFound
	// when no row matches.
	Get(ctx context.Context, userID int64, id string) (models.Record, error)

	// Update overwrites the mutable fields of an existing record (payload,
	// currency, version, sync_status, deleted, updated_at, last_sync_at).
	// Returns ErrRecordNotFound when no row matches.
	Update(ctx context.Context, record models.Record) (models.Record, error)

	// TouchSync stamps last_sync_at and sets sync_status=synced without
	// touching the payload. Used when an incoming submission is judged a
	// duplicate of an already-stored record.
	TouchSync(ctx context.Context, userID int64, id string, at time.Time) error

	// FindExactMatch returns the newest record of the given user and type
	// whose ciphertext, IV, salt, and currency are byte-identical to the
	// candidate and which was created at or after the since bound.
	FindExactMatch(ctx context.Context, userID int64, recordType models.RecordType, payload models.EncryptedPayload, currency string, since time.Time) (models.Record, error)

	// FindLengthMatch returns the newest record of the given user and type
	// with the same ciphertext length and currency created inside the
	// [from, to] window.
	FindLengthMatch(ctx context.Context, userID int64, recordType models.RecordType, length int, currency string, from, to time.Time) (models.Record, error)

	// FindByLocalID returns the record of the given user and type carrying
	// the client correlation key, created at or after the since bound.
	FindByLocalID(ctx context.Context, userID int64, recordType models.RecordType, localID string, since time.Time) (models.Record, error)

	// FindNewestSince returns the most recently created record of the
	// given user and type with created_at at or after the since bound.
	FindNewestSince(ctx context.Context, userID int64, recordType models.RecordType, since time.Time) (models.Record, error)

	// ListByStatus returns every record of the user currently in the given
	// sync status, oldest first.
	ListByStatus(ctx context.Context, userID int64, status models.SyncStatus) ([]models.Record, error)
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying. Implementations inspect driver-specific error codes.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
