package models

import "time"

// OperationKind is the intent of a queued mutation.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// Valid reports whether k is a known operation kind.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}

	return false
}

// PendingOperation is a queued sync intent. It lives only in the local
// store and is consumed once the sync engine confirms remote acceptance
// or permanently fails it after exhausting attempts.
//
// Operations for the same record are applied remotely in enqueue order
// (the queue is drained oldest-first), so a stale update can never
// clobber a newer one.
type PendingOperation struct {
	// ID is the auto-assigned queue position; lower IDs are older.
	ID int64 `json:"id"`

	UserID int64 `json:"user_id"`

	Kind OperationKind `json:"kind"`

	// RecordLocalID references the target record by its client-side
	// correlation key.
	RecordLocalID string `json:"record_local_id"`

	// Payload is the serialized request body to replay against the
	// remote authority ([UpsertRequest] or [UpdateRequest] JSON).
	Payload []byte `json:"payload"`

	CreatedAt time.Time `json:"created_at"`

	// Attempts counts delivery attempts made so far.
	Attempts int `json:"attempts"`

	// LastError holds the message of the most recent failed attempt.
	LastError string `json:"last_error,omitempty"`
}
