package models

import "time"

// RecordType is the closed set of compensation record kinds.
// The type of a record is immutable after creation and is one of the
// few plaintext fields the server is allowed to see: deduplication and
// indexing are scoped by it.
type RecordType string

const (
	RecordTypeSalary RecordType = "salary"
	RecordTypeBonus  RecordType = "bonus"
	RecordTypeEquity RecordType = "equity"
)

// Valid reports whether t is one of the known compensation types.
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeSalary, RecordTypeBonus, RecordTypeEquity:
		return true
	}

	return false
}

// SyncStatus describes where a record stands relative to the remote
// authority.
type SyncStatus string

const (
	// SyncStatusPending means the record has local changes that have not
	// been acknowledged by the server yet.
	SyncStatusPending SyncStatus = "pending"

	// SyncStatusSynced means the remote ciphertext equals the local
	// ciphertext as of LastSyncAt.
	SyncStatusSynced SyncStatus = "synced"

	// SyncStatusConflict means a version mismatch was observed during
	// sync. Conflicts are resolved last-write-wins and logged; the status
	// is informational, never blocking.
	SyncStatusConflict SyncStatus = "conflict"

	// SyncStatusError means the last sync attempt failed permanently or
	// exhausted its retries. The record stays in the pending queue until
	// retried manually or the condition clears.
	SyncStatusError SyncStatus = "error"
)

// EncryptedPayload is the opaque ciphertext blob produced on the
// client. The server stores and compares it byte-for-byte but can never
// interpret it: the plaintext schema (amount, dates, company) exists
// only on the device.
type EncryptedPayload struct {
	// Data is the AES-GCM ciphertext including the authentication tag.
	Data []byte `json:"data"`

	// IV is the random nonce generated for this single encryption call.
	// An IV is never reused under the same key.
	IV []byte `json:"iv"`

	// Salt is the key-derivation salt the payload was encrypted under.
	// It is not a secret; it is stored alongside the ciphertext so the
	// owning device can re-derive the key.
	Salt []byte `json:"salt"`
}

// Record is a single compensation entry as persisted on either side of
// the sync protocol.
//
// Invariants:
//   - Type and LocalID never change after creation.
//   - Version starts at 1 and only increases.
//   - SyncStatus == synced implies the remote copy's ciphertext equals
//     the local copy's ciphertext as of LastSyncAt.
type Record struct {
	// ID is the server-assigned canonical identifier (opaque, stable).
	// Empty for records created offline that have never been upserted.
	ID string `json:"id,omitempty"`

	// LocalID is the client-assigned correlation key for records created
	// offline. Unique per device per session; immutable.
	LocalID string `json:"local_id,omitempty"`

	// UserID is the owner. All queries and dedup decisions are scoped
	// by it.
	UserID int64 `json:"user_id"`

	// Type is the compensation kind; immutable after creation.
	Type RecordType `json:"type"`

	// Payload is the opaque ciphertext blob.
	Payload EncryptedPayload `json:"payload"`

	// Currency is the plaintext ISO 4217 code. Non-sensitive; used for
	// filtering, indexing, and as a dedup signal.
	Currency string `json:"currency"`

	// Version is bumped on every accepted update.
	Version int64 `json:"version"`

	SyncStatus SyncStatus `json:"sync_status"`

	// Deleted is the soft-delete flag. Deletions propagate through sync
	// like updates so last-write-wins stays consistent.
	Deleted bool `json:"deleted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastSyncAt is the time of the last successful exchange with the
	// remote authority. Nil for records that have never synced.
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}
