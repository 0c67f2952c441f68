// Package adapter provides transport-layer abstractions for communicating
// with the compvault server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync
// engine from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrUnauthorized] for 401, [ErrCapacity] for 507).
package adapter

import (
	"context"

	"github.com/compvault/compvault/models"
)

// ServerAdapter defines transport-agnostic communication with the compvault
// server. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all
	// subsequent requests. The token is minted by the external identity
	// provider; the adapter only carries it.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or
	// an empty string if no token has been set yet.
	Token() string

	// Upsert submits a candidate record to the server's reconciler. The
	// response carries the canonical record (existing or newly created)
	// and the dedup outcome.
	Upsert(ctx context.Context, req models.UpsertRequest) (models.UpsertResponse, error)

	// Update pushes an edit or a soft delete. Version mismatches are
	// resolved last-write-wins on the server and reported via
	// UpdateResponse.Conflicted, never as an error.
	Update(ctx context.Context, req models.UpdateRequest) (models.UpdateResponse, error)

	// PendingRecords fetches the diagnostics listing of records the
	// server still has in sync_status=pending for the authenticated user.
	PendingRecords(ctx context.Context) (models.PendingRecordsResponse, error)

	// EmergencyFlush delivers a batch of queued operations in one request.
	// The server either applies the batch synchronously (Applied set) or
	// accepts it for asynchronous processing (Queued set).
	EmergencyFlush(ctx context.Context, req models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error)
}
