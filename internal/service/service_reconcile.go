package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/store"
	"github.com/compvault/compvault/internal/validators"
	"github.com/compvault/compvault/models"
)

// reconcileService implements [ReconcileService]: the layered dedup decision
// for upserts and last-write-wins for updates.
//
// Dedup rules run most-specific first and short-circuit, all scoped to the
// same user and record type:
//  1. exact ciphertext+IV+salt+currency inside the trailing exact window;
//  2. same ciphertext length and currency created inside the ± probable
//     window (heuristic, can be disabled);
//  3. client correlation: same localId inside the correlation window, or,
//     when no localId was sent, any record created inside the same-batch
//     window;
//  4. no match: insert with version 1.
//
// A keyed lock serialises submissions per user and type so two concurrent
// uploads of the same fact cannot both conclude "no match".
type reconcileService struct {
	records   store.RecordRepository
	alerts    AlertService
	validator validators.Validator
	cfg       config.Reconcile
	logger    *logger.Logger

	// now is the time source; replaced in tests.
	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

const (
	defaultExactWindow       = 24 * time.Hour
	defaultProbableWindow    = 30 * time.Minute
	defaultCorrelationWindow = 24 * time.Hour
	defaultSameBatchWindow   = 5 * time.Minute
)

// NewReconcileService constructs a [ReconcileService]. Zero window values
// fall back to the defaults.
func NewReconcileService(records store.RecordRepository, alerts AlertService, cfg config.Reconcile, logger *logger.Logger) ReconcileService {
	if cfg.ExactWindow <= 0 {
		cfg.ExactWindow = defaultExactWindow
	}
	if cfg.ProbableWindow <= 0 {
		cfg.ProbableWindow = defaultProbableWindow
	}
	if cfg.CorrelationWindow <= 0 {
		cfg.CorrelationWindow = defaultCorrelationWindow
	}
	if cfg.SameBatchWindow <= 0 {
		cfg.SameBatchWindow = defaultSameBatchWindow
	}

	return &reconcileService{
		records:   records,
		alerts:    alerts,
		validator: validators.NewRecordValidator(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Upsert runs the dedup decision and returns the canonical record together
// with the rule that matched.
func (s *reconcileService) Upsert(ctx context.Context, req models.UpsertRequest) (models.UpsertResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		return models.UpsertResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	unlock := s.lock(req.UserID, req.Type)
	defer unlock()

	now := s.now().UTC()

	// Rule 1: exact ciphertext match.
	existing, err := s.records.FindExactMatch(ctx, req.UserID, req.Type, req.Payload, req.Currency, now.Add(-s.cfg.ExactWindow))
	if err == nil {
		return s.deduplicate(ctx, existing, models.OutcomeExactMatch, now)
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return models.UpsertResponse{}, s.fail(ctx, req.UserID, req.Type, "exact match lookup", err)
	}

	// Rule 2: ciphertext-length heuristic.
	if !s.cfg.DisableLengthHeuristic {
		existing, err = s.records.FindLengthMatch(ctx, req.UserID, req.Type,
			len(req.Payload.Data), req.Currency,
			now.Add(-s.cfg.ProbableWindow), now.Add(s.cfg.ProbableWindow))
		if err == nil {
			log.Warn().
				Str("func", "reconcileService.Upsert").
				Int64("user_id", req.UserID).
				Str("type", string(req.Type)).
				Str("record_id", existing.ID).
				Int("ciphertext_length", len(req.Payload.Data)).
				Msg("probable-content heuristic matched; discarding incoming write")
			return s.deduplicate(ctx, existing, models.OutcomeProbableMatch, now)
		}
		if !errors.Is(err, store.ErrRecordNotFound) {
			return models.UpsertResponse{}, s.fail(ctx, req.UserID, req.Type, "length match lookup", err)
		}
	}

	// Rule 3: client correlation.
	existing, err = s.findCorrelated(ctx, req, now)
	if err == nil {
		log.Warn().
			Str("func", "reconcileService.Upsert").
			Int64("user_id", req.UserID).
			Str("type", string(req.Type)).
			Str("record_id", existing.ID).
			Str("local_id", req.LocalID).
			Msg("client-correlation heuristic matched; discarding incoming write")
		return s.deduplicate(ctx, existing, models.OutcomeCorrelationMatch, now)
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return models.UpsertResponse{}, s.fail(ctx, req.UserID, req.Type, "correlation lookup", err)
	}

	// Rule 4: genuinely new fact.
	record := models.Record{
		LocalID:    req.LocalID,
		UserID:     req.UserID,
		Type:       req.Type,
		Payload:    req.Payload,
		Currency:   req.Currency,
		Version:    1,
		SyncStatus: models.SyncStatusSynced,
		CreatedAt:  now,
		UpdatedAt:  now,
		LastSyncAt: &now,
	}

	saved, err := s.records.Insert(ctx, record)
	if err != nil {
		return models.UpsertResponse{}, s.fail(ctx, req.UserID, req.Type, "insert", err)
	}

	log.Info().
		Str("func", "reconcileService.Upsert").
		Int64("user_id", req.UserID).
		Str("type", string(req.Type)).
		Str("record_id", saved.ID).
		Msg("inserted new record")

	return models.UpsertResponse{Record: saved, Outcome: models.OutcomeInserted}, nil
}

// findCorrelated implements rule 3. The localId lookup applies when the
// client sent a correlation key; the coarse same-batch window applies only
// to uncorrelated submissions.
func (s *reconcileService) findCorrelated(ctx context.Context, req models.UpsertRequest, now time.Time) (models.Record, error) {
	if req.LocalID != "" {
		return s.records.FindByLocalID(ctx, req.UserID, req.Type, req.LocalID, now.Add(-s.cfg.CorrelationWindow))
	}

	return s.records.FindNewestSince(ctx, req.UserID, req.Type, now.Add(-s.cfg.SameBatchWindow))
}

// deduplicate stamps the existing record as freshly synced and reports the
// matching rule. The incoming ciphertext is discarded.
func (s *reconcileService) deduplicate(ctx context.Context, existing models.Record, outcome models.ReconcileOutcome, now time.Time) (models.UpsertResponse, error) {
	if err := s.records.TouchSync(ctx, existing.UserID, existing.ID, now); err != nil {
		return models.UpsertResponse{}, s.fail(ctx, existing.UserID, existing.Type, "touch sync", err)
	}

	existing.SyncStatus = models.SyncStatusSynced
	existing.LastSyncAt = &now

	return models.UpsertResponse{Record: existing, Outcome: outcome}, nil
}

// Update applies an edit or soft delete last-write-wins:
// newVersion = max(stored, incoming) + 1. A version mismatch is logged as a
// conflict and reported, never rejected.
func (s *reconcileService) Update(ctx context.Context, req models.UpdateRequest) (models.UpdateResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		return models.UpdateResponse{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	stored, err := s.records.Get(ctx, req.UserID, req.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return models.UpdateResponse{}, err
		}
		return models.UpdateResponse{}, s.fail(ctx, req.UserID, "", "get for update", err)
	}

	unlock := s.lock(req.UserID, stored.Type)
	defer unlock()

	conflicted := req.Version != stored.Version
	if conflicted {
		log.Warn().
			Str("func", "reconcileService.Update").
			Int64("user_id", req.UserID).
			Str("record_id", req.ID).
			Int64("stored_version", stored.Version).
			Int64("incoming_version", req.Version).
			Msg("version mismatch resolved last-write-wins")
	}

	now := s.now().UTC()

	stored.Version = maxVersion(stored.Version, req.Version) + 1
	if len(req.Payload.Data) > 0 {
		stored.Payload = req.Payload
	}
	if req.Currency != "" {
		stored.Currency = req.Currency
	}
	stored.Deleted = req.Deleted
	stored.SyncStatus = models.SyncStatusSynced
	stored.LastSyncAt = &now

	saved, err := s.records.Update(ctx, stored)
	if err != nil {
		return models.UpdateResponse{}, s.fail(ctx, req.UserID, stored.Type, "update", err)
	}

	return models.UpdateResponse{Record: saved, Conflicted: conflicted}, nil
}

// fail records the failure for alert escalation and maps storage errors to
// the service taxonomy.
func (s *reconcileService) fail(ctx context.Context, userID int64, recordType models.RecordType, op string, err error) error {
	if s.alerts != nil {
		s.alerts.RecordFailure(ctx, userID, recordType)
	}

	if errors.Is(err, store.ErrStorageCapacity) {
		return fmt.Errorf("%w: %s: %w", ErrCapacity, op, err)
	}

	return fmt.Errorf("reconcile %s: %w", op, err)
}

// lock serialises reconcile decisions per user and record type.
func (s *reconcileService) lock(userID int64, recordType models.RecordType) func() {
	key := fmt.Sprintf("%d/%s", userID, recordType)

	s.mu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func maxVersion(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
