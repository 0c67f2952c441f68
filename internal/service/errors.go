package service

import "errors"

// Error taxonomy shared by the sync engine, the flush agent, and the HTTP
// handlers. Every failure in the system collapses into one of these six
// categories; callers branch with [errors.Is] and never inspect messages.
var (
	// ErrTransientNetwork marks failures that are expected to clear on
	// their own (connection refused, 5xx, DNS). Retried with backoff.
	ErrTransientNetwork = errors.New("transient network failure")

	// ErrAuthentication marks token problems (401/403) and decryption
	// failures. Never retried automatically; a new token or key is needed.
	ErrAuthentication = errors.New("authentication failure")

	// ErrValidation marks payloads the server (or local validation)
	// rejected as malformed. Retrying the same payload cannot succeed.
	ErrValidation = errors.New("validation failure")

	// ErrConflict marks version races. Conflicts are resolved
	// last-write-wins and logged; this error is informational, non-fatal.
	ErrConflict = errors.New("version conflict")

	// ErrCapacity marks out-of-storage conditions on either side.
	ErrCapacity = errors.New("storage capacity exhausted")

	// ErrTimeout marks requests that exceeded their deadline. Retryable
	// with backoff.
	ErrTimeout = errors.New("operation timed out")
)

// Validation errors returned by the reconcile and record services before a
// request touches storage.
var (
	ErrValidationUnknownType      = errors.New("unknown record type")
	ErrValidationEmptyPayload     = errors.New("empty encrypted payload")
	ErrValidationInvalidCurrency  = errors.New("invalid currency code")
	ErrValidationNoUserID         = errors.New("no user ID was given")
	ErrValidationNoRecordID       = errors.New("no record ID was given")
	ErrValidationUnknownOperation = errors.New("unknown queued operation kind")
)
