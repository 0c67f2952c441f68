package service

import (
	"context"

	"github.com/compvault/compvault/models"
)

// LocalRecordService is the device-side write path: it encrypts plaintext
// compensation data, persists it locally, and enqueues the matching sync
// intent in one transaction. Reads decrypt on the way out.
type LocalRecordService interface {
	// Create encrypts value and stores a new pending record under a fresh
	// local id.
	Create(ctx context.Context, recordType models.RecordType, value any, currency string) (models.Record, error)

	// Update re-encrypts value into the given record and enqueues an
	// update intent. The record flips back to pending.
	Update(ctx context.Context, localID string, value any, currency string) (models.Record, error)

	// Delete soft-deletes the record and enqueues a delete intent.
	Delete(ctx context.Context, localID string) error

	// Get returns one record by local id, ciphertext included.
	Get(ctx context.Context, localID string) (models.Record, error)

	// List returns the user's live records of the given type, newest
	// first.
	List(ctx context.Context, recordType models.RecordType) ([]models.Record, error)

	// Decrypt opens a record's payload into target (a non-nil pointer).
	Decrypt(ctx context.Context, record models.Record, target any) error
}

// SyncEngine drains the pending queue to the remote authority. Sync is
// single-flight: concurrent triggers coalesce into the running cycle.
type SyncEngine interface {
	// Sync runs one drain cycle. Returns immediately with no error if a
	// cycle is already in flight or the engine believes it is offline.
	Sync(ctx context.Context) error

	// EmergencyFlush sends the whole pending queue as one batch; on
	// failure the batch lands on the durable flush queue instead.
	EmergencyFlush(ctx context.Context) error

	// SetOnline records connectivity as reported by the lifecycle
	// monitor.
	SetOnline(online bool)

	// SetVisible records the foreground/visibility signal.
	SetVisible(visible bool)

	// State reports the engine's current ephemeral state.
	State() models.SyncState
}

// LifecycleMonitor converts page and connectivity transitions into sync
// triggers with per-trigger debounce.
type LifecycleMonitor interface {
	// Trigger registers one lifecycle transition.
	Trigger(ctx context.Context, kind models.TriggerKind)

	// RequestEmergencySync starts a bounded-wait emergency flush; no-op
	// when one is already in flight.
	RequestEmergencySync(ctx context.Context)

	// Stop cancels pending debounce timers.
	Stop()
}
