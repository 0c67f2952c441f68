package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/compvault/compvault/internal/service"
	"github.com/compvault/compvault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flushBody(n int) models.EmergencyFlushRequest {
	ops := make([]models.QueuedOperation, 0, n)
	for i := 0; i < n; i++ {
		body := upsertBody()
		ops = append(ops, models.QueuedOperation{
			Kind:   models.OperationCreate,
			Upsert: &body,
		})
	}
	return models.EmergencyFlushRequest{Operations: ops, Length: n}
}

// ─────────────────────────────────────────────
// emergencyFlush
// ─────────────────────────────────────────────

// TestEmergencyFlush_SynchronousBatch verifies that a batch applied
// synchronously is answered with 200 OK.
func TestEmergencyFlush_SynchronousBatch(t *testing.T) {
	emergency := &mockEmergencyService{
		flushFn: func(_ context.Context, userID int64, req models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
			require.Equal(t, int64(42), userID)
			return models.EmergencyFlushResponse{Applied: len(req.Operations)}, nil
		},
	}

	h := newTestHandler(t, &service.Services{Emergency: emergency})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/emergency", encodeBody(t, flushBody(3)))
	req = req.WithContext(ctxWithUserID(42))
	rec := httptest.NewRecorder()

	h.emergencyFlush(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.EmergencyFlushResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 3, resp.Applied)
	assert.Zero(t, resp.Queued)
}

// TestEmergencyFlush_QueuedBatch verifies that a batch accepted for
// asynchronous processing is answered with 202 Accepted.
func TestEmergencyFlush_QueuedBatch(t *testing.T) {
	emergency := &mockEmergencyService{
		flushFn: func(_ context.Context, _ int64, req models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
			return models.EmergencyFlushResponse{Queued: len(req.Operations)}, nil
		},
	}

	h := newTestHandler(t, &service.Services{Emergency: emergency})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/emergency", encodeBody(t, flushBody(25)))
	req = req.WithContext(ctxWithUserID(42))
	rec := httptest.NewRecorder()

	h.emergencyFlush(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp models.EmergencyFlushResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 25, resp.Queued)
}

func TestEmergencyFlush_NoUserID(t *testing.T) {
	h := newTestHandler(t, &service.Services{})

	req := httptest.NewRequest(http.MethodPost, "/api/sync/emergency", encodeBody(t, flushBody(1)))
	rec := httptest.NewRecorder()

	h.emergencyFlush(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEmergencyFlush_InvalidJSON(t *testing.T) {
	h := newTestHandler(t, &service.Services{})

	req := httptest.NewRequest(http.MethodPost, "/api/sync/emergency", strings.NewReader("{"))
	req = req.WithContext(ctxWithUserID(42))
	rec := httptest.NewRecorder()

	h.emergencyFlush(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON was passed")
}

// TestEmergencyFlush_ValidationError covers an empty or malformed batch
// rejected by the service with 400.
func TestEmergencyFlush_ValidationError(t *testing.T) {
	emergency := &mockEmergencyService{
		flushFn: func(_ context.Context, _ int64, _ models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
			return models.EmergencyFlushResponse{}, service.ErrValidation
		},
	}

	h := newTestHandler(t, &service.Services{Emergency: emergency})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/emergency", encodeBody(t, models.EmergencyFlushRequest{}))
	req = req.WithContext(ctxWithUserID(42))
	rec := httptest.NewRecorder()

	h.emergencyFlush(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestEmergencyFlush_CapacityError covers the async queue being full: the
// client is told to retry via 507.
func TestEmergencyFlush_CapacityError(t *testing.T) {
	emergency := &mockEmergencyService{
		flushFn: func(_ context.Context, _ int64, _ models.EmergencyFlushRequest) (models.EmergencyFlushResponse, error) {
			return models.EmergencyFlushResponse{}, service.ErrCapacity
		},
	}

	h := newTestHandler(t, &service.Services{Emergency: emergency})
	req := httptest.NewRequest(http.MethodPost, "/api/sync/emergency", encodeBody(t, flushBody(100)))
	req = req.WithContext(ctxWithUserID(42))
	rec := httptest.NewRecorder()

	h.emergencyFlush(rec, req)

	assert.Equal(t, http.StatusInsufficientStorage, rec.Code)
}
