package service

import (
	"context"

	"github.com/compvault/compvault/models"
)

// ReconcileService is the server's write path. Every incoming submission
// passes through the layered dedup decision before anything touches the
// records table.
type ReconcileService interface {
	// Upsert accepts a candidate record and decides whether it is a new
	// fact or a restatement of one already stored. The response always
	// carries the canonical record.
	Upsert(ctx context.Context, req models.UpsertRequest) (models.UpsertResponse, error)

	// Update applies an edit or soft delete last-write-wins. A version
	// mismatch is logged and reported, never rejected.
	Update(ctx context.Context, req models.UpdateRequest) (models.UpdateResponse, error)
}

// RecordService exposes server-side read paths over stored records.
type RecordService interface {
	// PendingRecords lists the user's records still in sync_status=pending.
	// Diagnostics surface; the client's sync loop reads its local queue.
	PendingRecords(ctx context.Context, userID int64) (models.PendingRecordsResponse, error)
}

// EmergencySyncService accepts the batched tail of a device's pending queue.
type EmergencySyncService interface {
	// Flush applies small batches synchronously and queues larger ones
	// for the background applier. The response reports which path ran.
	Flush(ctx context.Context, userID int64, req models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error)
}

// AlertService tracks reconcile failures per user and record type and
// escalates when too many land inside the trailing window.
type AlertService interface {
	// RecordFailure notes one failed reconcile attempt. When the count
	// inside the window crosses the threshold an alert is published.
	RecordFailure(ctx context.Context, userID int64, recordType models.RecordType)
}

// TokenParser validates a bearer token minted by the external identity
// provider and extracts the owning user.
type TokenParser interface {
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
