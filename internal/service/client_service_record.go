package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/crypto"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/models"
)

// localRecordService implements [LocalRecordService]: the encrypt-before-
// persist write path. Plaintext exists only as the value arguments here;
// everything below this layer sees ciphertext.
//
// Each record gets its own key-derivation salt, so leaking one record's key
// compromises nothing else.
type localRecordService struct {
	records store.LocalRecordRepository
	cipher  crypto.CipherService
	logger  *logger.Logger

	userID int64
	secret string

	now func() time.Time
}

// NewLocalRecordService constructs a [LocalRecordService] scoped to the
// device owner configured in cfg.
func NewLocalRecordService(records store.LocalRecordRepository, cipher crypto.CipherService, cfg *config.AgentConfig, logger *logger.Logger) LocalRecordService {
	return &localRecordService{
		records: records,
		cipher:  cipher,
		logger:  logger,
		userID:  cfg.UserID,
		secret:  cfg.Secret,
		now:     time.Now,
	}
}

// Create encrypts value under a fresh per-record salt and persists the
// record together with its create intent in one transaction.
func (s *localRecordService) Create(ctx context.Context, recordType models.RecordType, value any, currency string) (models.Record, error) {
	payload, err := s.seal(value)
	if err != nil {
		return models.Record{}, err
	}

	now := s.now().UTC()
	record := models.Record{
		LocalID:    uuid.NewString(),
		UserID:     s.userID,
		Type:       recordType,
		Payload:    payload,
		Currency:   currency,
		Version:    1,
		SyncStatus: models.SyncStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	op, err := s.pendingOp(models.OperationCreate, record.LocalID, models.UpsertRequest{
		Type:     recordType,
		Payload:  payload,
		Currency: currency,
		LocalID:  record.LocalID,
	}, now)
	if err != nil {
		return models.Record{}, err
	}

	if err := s.records.SaveWithPending(ctx, record, op); err != nil {
		return models.Record{}, fmt.Errorf("save record with pending operation: %w", err)
	}

	logger.FromContext(ctx).Info().
		Str("func", "localRecordService.Create").
		Str("local_id", record.LocalID).
		Str("type", string(recordType)).
		Msg("record created locally")

	return record, nil
}

// Update re-encrypts value into an existing record and enqueues an update
// intent. The record returns to pending until the change is acknowledged.
func (s *localRecordService) Update(ctx context.Context, localID string, value any, currency string) (models.Record, error) {
	record, err := s.records.Get(ctx, s.userID, localID)
	if err != nil {
		return models.Record{}, fmt.Errorf("get record for update: %w", err)
	}

	payload, err := s.seal(value)
	if err != nil {
		return models.Record{}, err
	}

	now := s.now().UTC()
	record.Payload = payload
	if currency != "" {
		record.Currency = currency
	}
	record.SyncStatus = models.SyncStatusPending
	record.UpdatedAt = now

	op, err := s.pendingOp(models.OperationUpdate, localID, models.UpdateRequest{
		ID:       record.ID,
		Payload:  payload,
		Currency: record.Currency,
		Version:  record.Version,
	}, now)
	if err != nil {
		return models.Record{}, err
	}

	if err := s.records.UpdateWithPending(ctx, record, op); err != nil {
		return models.Record{}, fmt.Errorf("update record with pending operation: %w", err)
	}

	return record, nil
}

// Delete soft-deletes a record: the local row is kept with deleted=true and
// a delete intent is enqueued. The ciphertext stays for conflict inspection
// until the remote acknowledges.
func (s *localRecordService) Delete(ctx context.Context, localID string) error {
	record, err := s.records.Get(ctx, s.userID, localID)
	if err != nil {
		return fmt.Errorf("get record for delete: %w", err)
	}

	now := s.now().UTC()
	record.Deleted = true
	record.SyncStatus = models.SyncStatusPending
	record.UpdatedAt = now

	op, err := s.pendingOp(models.OperationDelete, localID, models.UpdateRequest{
		ID:      record.ID,
		Version: record.Version,
		Deleted: true,
	}, now)
	if err != nil {
		return err
	}

	if err := s.records.UpdateWithPending(ctx, record, op); err != nil {
		return fmt.Errorf("delete record with pending operation: %w", err)
	}

	return nil
}

func (s *localRecordService) Get(ctx context.Context, localID string) (models.Record, error) {
	return s.records.Get(ctx, s.userID, localID)
}

func (s *localRecordService) List(ctx context.Context, recordType models.RecordType) ([]models.Record, error) {
	return s.records.ListByType(ctx, s.userID, recordType)
}

// Decrypt opens record's payload into target using the key re-derived from
// the record's own salt.
func (s *localRecordService) Decrypt(ctx context.Context, record models.Record, target any) error {
	key := s.cipher.DeriveKey(s.secret, record.Payload.Salt)
	if err := s.cipher.DecryptValue(key, record.Payload, target); err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("func", "localRecordService.Decrypt").
			Str("local_id", record.LocalID).
			Msg("payload decryption failed")
		return err
	}

	return nil
}

// seal encrypts value under a fresh salt and key.
func (s *localRecordService) seal(value any) (models.EncryptedPayload, error) {
	salt, err := s.cipher.GenerateSalt()
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("generate salt: %w", err)
	}

	key := s.cipher.DeriveKey(s.secret, salt)

	payload, err := s.cipher.EncryptValue(key, salt, value)
	if err != nil {
		return models.EncryptedPayload{}, fmt.Errorf("encrypt payload: %w", err)
	}

	return payload, nil
}

// pendingOp serializes the replay body into a queue entry.
func (s *localRecordService) pendingOp(kind models.OperationKind, localID string, body any, at time.Time) (models.PendingOperation, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return models.PendingOperation{}, fmt.Errorf("marshal pending operation payload: %w", err)
	}

	return models.PendingOperation{
		UserID:        s.userID,
		Kind:          kind,
		RecordLocalID: localID,
		Payload:       payload,
		CreatedAt:     at,
	}, nil
}
