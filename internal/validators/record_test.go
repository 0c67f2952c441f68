package validators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/models"
)

func validUpsert() models.UpsertRequest {
	return models.UpsertRequest{
		UserID:   42,
		Type:     models.RecordTypeSalary,
		Payload:  models.EncryptedPayload{Data: []byte("ct"), IV: []byte("iv"), Salt: []byte("salt")},
		Currency: "USD",
		LocalID:  "local-1",
	}
}

func validUpdate() models.UpdateRequest {
	return models.UpdateRequest{
		UserID:   42,
		ID:       "srv-1",
		Payload:  models.EncryptedPayload{Data: []byte("ct"), IV: []byte("iv"), Salt: []byte("salt")},
		Currency: "USD",
		Version:  3,
	}
}

func TestRecordValidator_UpsertRequest(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*models.UpsertRequest)
		wantErr error
	}{
		{name: "valid", mutate: func(*models.UpsertRequest) {}},
		{name: "missing user", mutate: func(r *models.UpsertRequest) { r.UserID = 0 }, wantErr: ErrInvalidUserID},
		{name: "unknown type", mutate: func(r *models.UpsertRequest) { r.Type = "pension" }, wantErr: ErrInvalidRecordType},
		{name: "empty ciphertext", mutate: func(r *models.UpsertRequest) { r.Payload.Data = nil }, wantErr: ErrEmptyPayload},
		{name: "empty iv", mutate: func(r *models.UpsertRequest) { r.Payload.IV = nil }, wantErr: ErrEmptyIV},
		{name: "empty salt", mutate: func(r *models.UpsertRequest) { r.Payload.Salt = nil }, wantErr: ErrEmptySalt},
		{name: "lowercase currency", mutate: func(r *models.UpsertRequest) { r.Currency = "usd" }, wantErr: ErrInvalidCurrency},
		{name: "long currency", mutate: func(r *models.UpsertRequest) { r.Currency = "USDT" }, wantErr: ErrInvalidCurrency},
		{name: "empty currency", mutate: func(r *models.UpsertRequest) { r.Currency = "" }, wantErr: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUpsert()
			tt.mutate(&req)

			err := v.Validate(ctx, req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRecordValidator_UpsertRequest_FieldScoping(t *testing.T) {
	v := NewRecordValidator()

	req := validUpsert()
	req.UserID = 0 // would fail full validation

	// Only the currency field is checked.
	assert.NoError(t, v.Validate(context.Background(), req, FieldCurrency))
}

func TestRecordValidator_UpdateRequest(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*models.UpdateRequest)
		wantErr error
	}{
		{name: "valid", mutate: func(*models.UpdateRequest) {}},
		{name: "missing record id", mutate: func(r *models.UpdateRequest) { r.ID = "" }, wantErr: ErrInvalidRecordID},
		{name: "missing user", mutate: func(r *models.UpdateRequest) { r.UserID = 0 }, wantErr: ErrInvalidUserID},
		{name: "negative version", mutate: func(r *models.UpdateRequest) { r.Version = -1 }, wantErr: ErrInvalidVersion},
		{name: "empty payload", mutate: func(r *models.UpdateRequest) { r.Payload = models.EncryptedPayload{} }, wantErr: ErrEmptyPayload},
		{name: "empty currency means unchanged", mutate: func(r *models.UpdateRequest) { r.Currency = "" }},
		{name: "malformed currency", mutate: func(r *models.UpdateRequest) { r.Currency = "usd" }, wantErr: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validUpdate()
			tt.mutate(&req)

			err := v.Validate(ctx, req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRecordValidator_UpdateRequest_SoftDeleteWithoutPayload(t *testing.T) {
	v := NewRecordValidator()

	// The client builds delete intents with only the server id, version
	// and the Deleted flag set.
	req := models.UpdateRequest{UserID: 42, ID: "srv-1", Version: 3, Deleted: true}

	assert.NoError(t, v.Validate(context.Background(), req))
}

func TestRecordValidator_EmergencyFlushRequest(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()
	upsert := validUpsert()
	update := validUpdate()

	t.Run("valid batch", func(t *testing.T) {
		req := models.EmergencyFlushRequest{Operations: []models.QueuedOperation{
			{Kind: models.OperationCreate, Upsert: &upsert},
			{Kind: models.OperationUpdate, Update: &update},
			{Kind: models.OperationDelete, Update: &update},
		}}
		assert.NoError(t, v.Validate(ctx, req))
	})

	t.Run("empty batch", func(t *testing.T) {
		err := v.Validate(ctx, models.EmergencyFlushRequest{})
		assert.ErrorIs(t, err, ErrNoOperations)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := models.EmergencyFlushRequest{Operations: []models.QueuedOperation{{Kind: "upsert"}}}
		assert.ErrorIs(t, v.Validate(ctx, req), ErrInvalidOperation)
	})

	t.Run("kind payload mismatch", func(t *testing.T) {
		req := models.EmergencyFlushRequest{Operations: []models.QueuedOperation{
			{Kind: models.OperationCreate, Update: &update},
		}}
		assert.ErrorIs(t, v.Validate(ctx, req), ErrOperationKindMismatch)
	})
}

func TestRecordValidator_UnsupportedType(t *testing.T) {
	v := NewRecordValidator()

	err := v.Validate(context.Background(), struct{}{})
	require.ErrorIs(t, err, ErrUnsupportedType)
}
