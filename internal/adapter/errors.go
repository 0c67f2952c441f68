package adapter

import "errors"

// Transport-level sentinel errors. mapHTTPError wraps them around the
// response body so callers can match with [errors.Is] while still seeing
// the server's message.
var (
	// ErrUnauthorized covers 401 and 403: the token is missing, expired,
	// or not acceptable. Not retryable without a new token.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrBadRequest covers 400 and 422: the server rejected the payload
	// itself. Retrying the same payload cannot succeed.
	ErrBadRequest = errors.New("bad request")

	// ErrConflict covers 409. The reconciler resolves version races
	// last-write-wins, so a 409 from this server is unexpected and is
	// surfaced for logging rather than retry.
	ErrConflict = errors.New("version conflict")

	// ErrNotFound covers 404.
	ErrNotFound = errors.New("resource not found")

	// ErrCapacity covers 507: the server is out of storage.
	ErrCapacity = errors.New("server storage capacity exhausted")

	// ErrServerUnavailable covers the 5xx family (except 507): the server
	// is down or degraded. Retryable with backoff.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrTimeout is returned when the request exceeded its deadline or
	// was cancelled mid-flight. Retryable with backoff.
	ErrTimeout = errors.New("request timed out")
)
