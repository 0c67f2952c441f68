package http

import (
	"encoding/json"
	"net/http"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/utils"
	"github.com/compvault/compvault/models"
)

// emergencyFlush handles POST /api/sync/emergency: a batch of queued
// operations from a page in its unload phase. Batches applied synchronously
// answer 200; batches accepted for asynchronous processing answer 202.
func (h *Handler) emergencyFlush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.emergencyFlush").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusUnauthorized)
		return
	}

	var req models.EmergencyFlushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.emergencyFlush").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.Emergency.Flush(ctx, userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.emergencyFlush").Msg("error flushing emergency batch")
		http.Error(w, "error flushing emergency batch", statusFromError(err))
		return
	}

	status := http.StatusOK
	if response.Queued > 0 {
		status = http.StatusAccepted
	}

	utils.WriteJSON(w, response, status)
}
