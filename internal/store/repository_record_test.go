package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/models"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:                 db,
		errorClassificator: NewPostgresErrorClassifier(),
		logger:             logger.Nop(),
	}
}

func newTestRepo(t *testing.T, db *sql.DB) RecordRepository {
	t.Helper()
	return NewRecordRepository(newDBFromSQL(db), logger.Nop())
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

type recordRow struct {
	id         string
	localID    string
	userID     int64
	recordType models.RecordType
	data       []byte
	iv         []byte
	salt       []byte
	currency   string
	version    int64
	syncStatus models.SyncStatus
	deleted    bool
	createdAt  time.Time
	updatedAt  time.Time
	lastSyncAt driver.Value // *time.Time or nil
}

func (r recordRow) toValues() []driver.Value {
	return []driver.Value{
		r.id, r.localID, r.userID, r.recordType,
		r.data, r.iv, r.salt, r.currency,
		r.version, r.syncStatus, r.deleted,
		r.createdAt, r.updatedAt, r.lastSyncAt,
	}
}

func recordRows(rows ...recordRow) *sqlmock.Rows {
	result := sqlmock.NewRows(recordColumns)
	for _, r := range rows {
		result.AddRow(r.toValues()...)
	}
	return result
}

func TestRecordRepository_Insert(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	record := models.Record{
		LocalID:    "local-1",
		UserID:     42,
		Type:       models.RecordTypeSalary,
		Payload:    models.EncryptedPayload{Data: []byte("ct"), IV: []byte("iv"), Salt: []byte("salt")},
		Currency:   "USD",
		Version:    1,
		SyncStatus: models.SyncStatusSynced,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO records`)).
		WithArgs(
			sqlmock.AnyArg(), // generated uuid
			record.LocalID,
			record.UserID,
			record.Type,
			record.Payload.Data,
			record.Payload.IV,
			record.Payload.Salt,
			record.Currency,
			record.Version,
			record.SyncStatus,
			record.Deleted,
			sqlmock.AnyArg(), // created_at
			sqlmock.AnyArg(), // updated_at
			sqlmock.AnyArg(), // last_sync_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	saved, err := repo.Insert(testContext(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID, "insert must assign a server id")
	assert.False(t, saved.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Insert_NoRowsAffected(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO records`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Insert(testContext(), models.Record{UserID: 1, Type: models.RecordTypeBonus})
	require.ErrorIs(t, err, ErrRecordNotSaved)
}

func TestRecordRepository_Insert_ExecError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO records`)).
		WillReturnError(errors.New("boom"))

	_, err := repo.Insert(testContext(), models.Record{UserID: 1, Type: models.RecordTypeBonus})
	require.ErrorIs(t, err, ErrExecutingStatement)
}

func TestRecordRepository_Get(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	now := time.Now().Truncate(time.Millisecond)
	row := recordRow{
		id: "srv-1", localID: "local-1", userID: 42,
		recordType: models.RecordTypeSalary,
		data:       []byte("ct"), iv: []byte("iv"), salt: []byte("salt"),
		currency: "EUR", version: 3,
		syncStatus: models.SyncStatusSynced,
		createdAt:  now, updatedAt: now, lastSyncAt: &now,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WithArgs(int64(42), "srv-1").
		WillReturnRows(recordRows(row))

	record, err := repo.Get(testContext(), 42, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "srv-1", record.ID)
	assert.Equal(t, "local-1", record.LocalID)
	assert.Equal(t, models.RecordTypeSalary, record.Type)
	assert.Equal(t, int64(3), record.Version)
	require.NotNil(t, record.LastSyncAt)
	assert.Equal(t, now, *record.LastSyncAt)
}

func TestRecordRepository_Get_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WithArgs(int64(42), "missing").
		WillReturnRows(recordRows())

	_, err := repo.Get(testContext(), 42, "missing")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordRepository_Update(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	record := models.Record{
		ID:         "srv-1",
		UserID:     42,
		Payload:    models.EncryptedPayload{Data: []byte("ct2"), IV: []byte("iv2"), Salt: []byte("salt")},
		Currency:   "USD",
		Version:    4,
		SyncStatus: models.SyncStatusSynced,
	}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE records SET`)).
		WithArgs(
			record.Payload.Data,
			record.Payload.IV,
			record.Payload.Salt,
			record.Currency,
			record.Version,
			record.SyncStatus,
			record.Deleted,
			sqlmock.AnyArg(), // updated_at
			sqlmock.AnyArg(), // last_sync_at
			record.UserID,
			record.ID,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.Update(testContext(), record)
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Update_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE records SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(testContext(), models.Record{ID: "missing", UserID: 42})
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordRepository_TouchSync(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE records SET`)).
		WithArgs(at, int64(42), "srv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchSync(testContext(), 42, "srv-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_FindExactMatch(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	now := time.Now().Truncate(time.Millisecond)
	payload := models.EncryptedPayload{Data: []byte("ct"), IV: []byte("iv"), Salt: []byte("salt")}
	row := recordRow{
		id: "srv-1", localID: "local-1", userID: 42,
		recordType: models.RecordTypeSalary,
		data:       payload.Data, iv: payload.IV, salt: payload.Salt,
		currency: "USD", version: 1,
		syncStatus: models.SyncStatusSynced,
		createdAt:  now, updatedAt: now, lastSyncAt: nil,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WillReturnRows(recordRows(row))

	record, err := repo.FindExactMatch(testContext(), 42, models.RecordTypeSalary, payload, "USD", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "srv-1", record.ID)
	assert.Nil(t, record.LastSyncAt)
}

func TestRecordRepository_FindExactMatch_NoCandidate(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WillReturnRows(recordRows())

	_, err := repo.FindExactMatch(testContext(), 42, models.RecordTypeSalary,
		models.EncryptedPayload{Data: []byte("ct")}, "USD", time.Now().Add(-24*time.Hour))
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordRepository_FindLengthMatch(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	now := time.Now().Truncate(time.Millisecond)
	row := recordRow{
		id: "srv-2", localID: "local-2", userID: 42,
		recordType: models.RecordTypeBonus,
		data:       []byte("ciphertext"), iv: []byte("iv"), salt: []byte("salt"),
		currency: "GBP", version: 1,
		syncStatus: models.SyncStatusSynced,
		createdAt:  now, updatedAt: now, lastSyncAt: nil,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`octet_length(data)`)).
		WillReturnRows(recordRows(row))

	record, err := repo.FindLengthMatch(testContext(), 42, models.RecordTypeBonus,
		10, "GBP", now.Add(-30*time.Minute), now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "srv-2", record.ID)
}

func TestRecordRepository_FindByLocalID(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	now := time.Now().Truncate(time.Millisecond)
	row := recordRow{
		id: "srv-3", localID: "local-3", userID: 42,
		recordType: models.RecordTypeEquity,
		data:       []byte("ct"), iv: []byte("iv"), salt: []byte("salt"),
		currency: "USD", version: 2,
		syncStatus: models.SyncStatusSynced,
		createdAt:  now, updatedAt: now, lastSyncAt: nil,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`local_id`)).
		WillReturnRows(recordRows(row))

	record, err := repo.FindByLocalID(testContext(), 42, models.RecordTypeEquity, "local-3", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "local-3", record.LocalID)
}

func TestRecordRepository_FindNewestSince(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	now := time.Now().Truncate(time.Millisecond)
	row := recordRow{
		id: "srv-4", localID: "local-4", userID: 42,
		recordType: models.RecordTypeSalary,
		data:       []byte("ct"), iv: []byte("iv"), salt: []byte("salt"),
		currency: "USD", version: 1,
		syncStatus: models.SyncStatusSynced,
		createdAt:  now, updatedAt: now, lastSyncAt: nil,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WillReturnRows(recordRows(row))

	record, err := repo.FindNewestSince(testContext(), 42, models.RecordTypeSalary, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "srv-4", record.ID)
}

func TestRecordRepository_ListByStatus(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	now := time.Now().Truncate(time.Millisecond)
	rows := recordRows(
		recordRow{
			id: "srv-1", localID: "l1", userID: 42, recordType: models.RecordTypeSalary,
			data: []byte("a"), iv: []byte("i"), salt: []byte("s"), currency: "USD",
			version: 1, syncStatus: models.SyncStatusPending,
			createdAt: now.Add(-time.Hour), updatedAt: now, lastSyncAt: nil,
		},
		recordRow{
			id: "srv-2", localID: "l2", userID: 42, recordType: models.RecordTypeBonus,
			data: []byte("b"), iv: []byte("i"), salt: []byte("s"), currency: "USD",
			version: 1, syncStatus: models.SyncStatusPending,
			createdAt: now, updatedAt: now, lastSyncAt: nil,
		},
	)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WithArgs(int64(42), models.SyncStatusPending).
		WillReturnRows(rows)

	records, err := repo.ListByStatus(testContext(), 42, models.SyncStatusPending)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "srv-1", records[0].ID, "oldest first")
	assert.Equal(t, "srv-2", records[1].ID)
}

func TestRecordRepository_ListByStatus_QueryError(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM records`)).
		WillReturnError(errors.New("connection lost"))

	_, err := repo.ListByStatus(testContext(), 42, models.SyncStatusPending)
	require.ErrorIs(t, err, ErrExecutingQuery)
}
