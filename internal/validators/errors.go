package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUserID       = errors.New("invalid user ID")
	ErrInvalidRecordID     = errors.New("invalid record ID")
	ErrInvalidRecordType   = errors.New("invalid record type")
	ErrEmptyPayload        = errors.New("encrypted payload is required")
	ErrEmptyIV             = errors.New("payload IV is required")
	ErrEmptySalt           = errors.New("payload salt is required")
	ErrInvalidCurrency     = errors.New("currency must be a three-letter ISO 4217 code")
	ErrInvalidVersion      = errors.New("invalid version")
	ErrNoOperations        = errors.New("operations list cannot be empty")
	ErrInvalidOperation    = errors.New("invalid queued operation")
	ErrOperationKindMismatch = errors.New("operation kind does not match its payload")
)
