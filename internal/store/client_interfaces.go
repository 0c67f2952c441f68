package store

import (
	"context"
	"time"

	"github.com/compvault/compvault/models"
)

// LocalRecordRepository is the on-device store for encrypted compensation
// records. Implementations must guarantee that SaveWithPending writes the
// record and enqueues its sync operation in a single transaction, so a
// crash can never leave a record without its queued sync intent.
type LocalRecordRepository interface {
	// SaveWithPending inserts the record and its pending operation
	// atomically.
	SaveWithPending(ctx context.Context, record models.Record, op models.PendingOperation) error

	// Get fetches a record by its client correlation key.
	Get(ctx context.Context, userID int64, localID string) (models.Record, error)

	// Update overwrites the mutable fields of a locally stored record,
	// keyed by local_id.
	Update(ctx context.Context, record models.Record) error

	// UpdateWithPending applies the update and enqueues its sync operation
	// atomically.
	UpdateWithPending(ctx context.Context, record models.Record, op models.PendingOperation) error

	// MarkSynced stamps the server id, sync status, version, and
	// last_sync_at after the remote authority accepts the record.
	MarkSynced(ctx context.Context, userID int64, localID, serverID string, version int64, at time.Time) error

	// MarkStatus sets the sync status of a record, e.g. to error after a
	// permanent sync failure.
	MarkStatus(ctx context.Context, userID int64, localID string, status models.SyncStatus) error

	// ListByType returns the user's live records of one type, newest first.
	ListByType(ctx context.Context, userID int64, recordType models.RecordType) ([]models.Record, error)

	// ListByStatus returns the user's records in the given sync status,
	// oldest first.
	ListByStatus(ctx context.Context, userID int64, status models.SyncStatus) ([]models.Record, error)
}

// PendingQueueRepository is the durable FIFO queue of sync intents.
type PendingQueueRepository interface {
	// Enqueue appends an operation to the queue.
	Enqueue(ctx context.Context, op models.PendingOperation) error

	// List returns the user's queued operations, oldest first.
	List(ctx context.Context, userID int64) ([]models.PendingOperation, error)

	// Dequeue removes an operation after it has been accepted remotely or
	// failed permanently.
	Dequeue(ctx context.Context, id int64) error

	// MarkAttempt increments the attempt counter and records the failure
	// message of the most recent delivery attempt.
	MarkAttempt(ctx context.Context, id int64, lastError string) error
}

// FlushQueueRepository is the durable queue backing the background flush
// agent. Entries are opaque payload blobs consumed strictly FIFO with
// peek/acknowledge semantics: an entry leaves the queue only after its
// delivery is acknowledged.
type FlushQueueRepository interface {
	// PushBack appends a payload to the named queue.
	PushBack(ctx context.Context, queue string, payload []byte) error

	// PeekFront returns the head of the named queue without removing it,
	// along with the entry id to acknowledge it by. Returns ErrQueueEmpty
	// when there is nothing to consume.
	PeekFront(ctx context.Context, queue string) (int64, []byte, error)

	// Acknowledge deletes a delivered entry. Consumers peek, deliver, then
	// acknowledge, so an entry survives a crash mid-delivery.
	Acknowledge(ctx context.Context, id int64) error

	// List returns all payloads in the named queue in delivery order.
	List(ctx context.Context, queue string) ([][]byte, error)

	// Len reports the number of entries in the named queue.
	Len(ctx context.Context, queue string) (int, error)
}
