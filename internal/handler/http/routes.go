package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// all record and sync routes require a valid bearer token
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/records/upsert", h.upsertRecord)
		r.Patch("/api/records/update", h.updateRecord)
		r.Get("/api/records/pending", h.pendingRecords)

		r.Post("/api/sync/emergency", h.emergencyFlush)
	})

	return router
}
