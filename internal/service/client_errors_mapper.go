package service

import (
	"errors"
	"fmt"

	"github.com/compvault/compvault/internal/adapter"
	"github.com/compvault/compvault/internal/crypto"
	"github.com/compvault/compvault/internal/store"
)

// classifySyncError collapses transport and storage failures into the
// service error taxonomy. The sync engine branches on the result: transient
// categories are retried with backoff, permanent ones are not.
func classifySyncError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, adapter.ErrServerUnavailable):
		return fmt.Errorf("%w: %w", ErrTransientNetwork, err)
	case errors.Is(err, adapter.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	case errors.Is(err, crypto.ErrAuthentication):
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	case errors.Is(err, adapter.ErrBadRequest), errors.Is(err, adapter.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, adapter.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, adapter.ErrCapacity), errors.Is(err, store.ErrStorageCapacity):
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	}

	return err
}

// isTransientError reports whether a classified error is worth retrying.
func isTransientError(err error) bool {
	return errors.Is(err, ErrTransientNetwork) || errors.Is(err, ErrTimeout)
}
