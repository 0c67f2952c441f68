package validators

import (
	"context"

	"github.com/compvault/compvault/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a
// subset of fields (field-level scoping).
const (
	// FieldUserID targets the owner identifier of a record or request.
	FieldUserID = "user_id"

	// FieldRecordID targets the server-assigned record identifier.
	FieldRecordID = "record_id"

	// FieldType targets the compensation kind (salary, bonus, equity).
	FieldType = "type"

	// FieldPayload targets the encrypted payload (ciphertext, IV, salt).
	FieldPayload = "payload"

	// FieldCurrency targets the plaintext ISO 4217 currency code.
	FieldCurrency = "currency"

	// FieldVersion targets the record version counter.
	FieldVersion = "version"

	// FieldOperations targets the operation list of an emergency flush
	// batch.
	FieldOperations = "operations"
)

// RecordValidator validates incoming record submissions and emergency
// flush batches before they reach the reconciler.
type RecordValidator struct {
}

// NewRecordValidator constructs a [Validator] for record requests.
func NewRecordValidator() Validator {
	return &RecordValidator{}
}

// Validate dispatches on the concrete request type. Unknown types return
// [ErrUnsupportedType].
func (v *RecordValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.UpsertRequest:
		return v.validateUpsertRequest(ctx, value, fields...)
	case *models.UpsertRequest:
		return v.validateUpsertRequest(ctx, *value, fields...)

	case models.UpdateRequest:
		return v.validateUpdateRequest(ctx, value, fields...)
	case *models.UpdateRequest:
		return v.validateUpdateRequest(ctx, *value, fields...)

	case models.EmergencyFlushRequest:
		return v.validateEmergencyFlushRequest(ctx, value, fields...)
	case *models.EmergencyFlushRequest:
		return v.validateEmergencyFlushRequest(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// isValidCurrency checks the ISO 4217 shape: exactly three ASCII capital
// letters. The full code table changes over time, so only the format is
// enforced here.
func isValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

func (v *RecordValidator) validateUpsertRequest(ctx context.Context, req models.UpsertRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUserID, FieldType, FieldPayload, FieldCurrency}
	}

	for _, f := range fields {
		switch f {
		case FieldUserID:
			if req.UserID <= 0 {
				return ErrInvalidUserID
			}
		case FieldType:
			if !req.Type.Valid() {
				return ErrInvalidRecordType
			}
		case FieldPayload:
			if err := validatePayload(req.Payload); err != nil {
				return err
			}
		case FieldCurrency:
			if !isValidCurrency(req.Currency) {
				return ErrInvalidCurrency
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateUpdateRequest(ctx context.Context, req models.UpdateRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUserID, FieldRecordID, FieldPayload, FieldCurrency, FieldVersion}
	}

	for _, f := range fields {
		switch f {
		case FieldUserID:
			if req.UserID <= 0 {
				return ErrInvalidUserID
			}
		case FieldRecordID:
			if req.ID == "" {
				return ErrInvalidRecordID
			}
		case FieldPayload:
			// A pure soft delete may carry no new ciphertext.
			if req.Deleted && len(req.Payload.Data) == 0 {
				continue
			}
			if err := validatePayload(req.Payload); err != nil {
				return err
			}
		case FieldCurrency:
			// Empty means "unchanged": soft deletes and pure payload
			// edits carry no currency, the reconciler keeps the stored
			// code.
			if req.Currency == "" {
				continue
			}
			if !isValidCurrency(req.Currency) {
				return ErrInvalidCurrency
			}
		case FieldVersion:
			if req.Version < 0 {
				return ErrInvalidVersion
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *RecordValidator) validateEmergencyFlushRequest(ctx context.Context, req models.EmergencyFlushRequest, fields ...string) error {
	if len(req.Operations) == 0 {
		return ErrNoOperations
	}

	for _, op := range req.Operations {
		if !op.Kind.Valid() {
			return ErrInvalidOperation
		}

		switch op.Kind {
		case models.OperationCreate:
			if op.Upsert == nil {
				return ErrOperationKindMismatch
			}
			if err := v.validateUpsertRequest(ctx, *op.Upsert, FieldType, FieldPayload, FieldCurrency); err != nil {
				return err
			}
		case models.OperationUpdate, models.OperationDelete:
			if op.Update == nil {
				return ErrOperationKindMismatch
			}
			if err := v.validateUpdateRequest(ctx, *op.Update, FieldRecordID); err != nil {
				return err
			}
		}
	}

	return nil
}

func validatePayload(payload models.EncryptedPayload) error {
	if len(payload.Data) == 0 {
		return ErrEmptyPayload
	}
	if len(payload.IV) == 0 {
		return ErrEmptyIV
	}
	if len(payload.Salt) == 0 {
		return ErrEmptySalt
	}
	return nil
}
