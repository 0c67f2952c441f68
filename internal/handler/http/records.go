package http

import (
	"encoding/json"
	"net/http"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/utils"
	"github.com/compvault/compvault/models"
)

// upsertRecord handles POST /api/records/upsert: it routes the candidate
// record through the reconciler and reports the canonical record plus the
// dedup outcome. Idempotent under replay.
func (h *Handler) upsertRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.upsertRecord").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusUnauthorized)
		return
	}

	var req models.UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.upsertRecord").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	// the token is the only trusted source of identity
	req.UserID = userID

	response, err := h.services.Reconcile.Upsert(ctx, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.upsertRecord").Msg("error reconciling record")
		http.Error(w, "error reconciling record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// updateRecord handles PATCH /api/records/update: edits and soft deletes,
// resolved last-write-wins. A version conflict is reported in the body,
// never as an error status.
func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.updateRecord").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusUnauthorized)
		return
	}

	var req models.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.updateRecord").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	req.UserID = userID

	response, err := h.services.Reconcile.Update(ctx, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateRecord").Msg("error updating record")
		http.Error(w, "error updating record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// pendingRecords handles GET /api/records/pending: a diagnostics listing of
// the user's records still awaiting sync.
func (h *Handler) pendingRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pendingRecords").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusUnauthorized)
		return
	}

	response, err := h.services.Records.PendingRecords(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pendingRecords").Msg("error listing pending records")
		http.Error(w, "error listing pending records", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
