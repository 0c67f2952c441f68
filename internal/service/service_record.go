package service

import (
	"context"
	"fmt"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/models"
)

// recordService implements [RecordService]: read-side diagnostics over the
// server record store.
type recordService struct {
	records store.RecordRepository
	logger  *logger.Logger
}

// NewRecordService constructs a [RecordService].
func NewRecordService(records store.RecordRepository, logger *logger.Logger) RecordService {
	return &recordService{records: records, logger: logger}
}

// PendingRecords lists the user's records still marked pending, oldest
// first.
func (s *recordService) PendingRecords(ctx context.Context, userID int64) (models.PendingRecordsResponse, error) {
	records, err := s.records.ListByStatus(ctx, userID, models.SyncStatusPending)
	if err != nil {
		logger.FromContext(ctx).Error().Err(err).
			Str("func", "recordService.PendingRecords").
			Int64("user_id", userID).
			Msg("listing pending records")
		return models.PendingRecordsResponse{}, fmt.Errorf("list pending records: %w", err)
	}

	return models.PendingRecordsResponse{Records: records, Length: len(records)}, nil
}
