package http

import (
	"errors"
	"net/http"

	"github.com/compvault/compvault/internal/service"
	"github.com/compvault/compvault/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrValidation:     http.StatusBadRequest,
	service.ErrAuthentication: http.StatusUnauthorized,
	service.ErrCapacity:       http.StatusInsufficientStorage,
	service.ErrTimeout:        http.StatusRequestTimeout,

	store.ErrRecordNotFound:  http.StatusNotFound,
	store.ErrRecordNotSaved:  http.StatusInternalServerError,
	store.ErrStorageCapacity: http.StatusInsufficientStorage,
	store.ErrCorruptedRow:    http.StatusInternalServerError,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
