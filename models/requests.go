package models

// UpsertRequest is the body of POST /api/records/upsert. It presents a
// candidate record to the reconciler, which decides whether it is a new
// fact or a restatement of one already stored (see the dedup rules on
// the reconcile service). Idempotent under replay.
type UpsertRequest struct {
	// UserID is filled from the authenticated token on the server; a
	// client-supplied value is ignored.
	UserID int64 `json:"user_id,omitempty"`

	Type RecordType `json:"type"`

	Payload EncryptedPayload `json:"payload"`

	// Currency is the plaintext ISO 4217 code.
	Currency string `json:"currency"`

	// LocalID is the optional client correlation key for records
	// created offline.
	LocalID string `json:"local_id,omitempty"`
}

// UpdateRequest is the body of PATCH /api/records/update. Version
// mismatches are resolved last-write-wins, never rejected.
type UpdateRequest struct {
	UserID int64 `json:"user_id,omitempty"`

	// ID is the canonical server-assigned record identifier.
	ID string `json:"id"`

	Payload EncryptedPayload `json:"payload"`

	Currency string `json:"currency"`

	// Version is the client's view of the record version at edit time.
	Version int64 `json:"version"`

	// Deleted propagates a soft delete through the same last-write-wins
	// path as a content update.
	Deleted bool `json:"deleted,omitempty"`
}

// QueuedOperation is one element of an emergency flush batch: a tagged
// union over the request kinds the pending queue can hold. Exactly one
// of Upsert and Update is set, matching Kind.
type QueuedOperation struct {
	Kind OperationKind `json:"kind"`

	Upsert *UpsertRequest `json:"upsert,omitempty"`
	Update *UpdateRequest `json:"update,omitempty"`

	// EnqueuedAtMS is the client enqueue time in epoch milliseconds,
	// preserved for audit when the batch is applied asynchronously.
	EnqueuedAtMS int64 `json:"enqueued_at_ms,omitempty"`
}

// EmergencyFlushRequest is the body of POST /api/sync/emergency: the
// tail of a device's pending queue, delivered as one batch because the
// sender may be about to terminate.
type EmergencyFlushRequest struct {
	Operations []QueuedOperation `json:"operations"`
	Length     int               `json:"length"`
}
