package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/compvault/compvault/models"
)

const (
	insertRecord = `INSERT INTO records (
			id,
			local_id,
			user_id,
			type,
			data,
			iv,
			salt,
			currency,
			version,
			sync_status,
			deleted,
			created_at,
			updated_at,
			last_sync_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`

	getRecordByID = `SELECT
			id, local_id, user_id, type, data, iv, salt, currency,
			version, sync_status, deleted, created_at, updated_at, last_sync_at
		FROM records
		WHERE user_id = $1 AND id = $2;`

	updateRecord = `UPDATE records SET
			data         = $1,
			iv           = $2,
			salt         = $3,
			currency     = $4,
			version      = $5,
			sync_status  = $6,
			deleted      = $7,
			updated_at   = $8,
			last_sync_at = $9
		WHERE user_id = $10 AND id = $11;`

	touchRecordSync = `UPDATE records SET
			sync_status  = 'synced',
			last_sync_at = $1
		WHERE user_id = $2 AND id = $3;`

	listRecordsByStatus = `SELECT
			id, local_id, user_id, type, data, iv, salt, currency,
			version, sync_status, deleted, created_at, updated_at, last_sync_at
		FROM records
		WHERE user_id = $1 AND sync_status = $2
		ORDER BY created_at ASC;`
)

// recordColumns is the canonical column list shared by the dynamically
// built candidate queries below.
var recordColumns = []string{
	"id", "local_id", "user_id", "type", "data", "iv", "salt", "currency",
	"version", "sync_status", "deleted", "created_at", "updated_at", "last_sync_at",
}

// psql builds queries with PostgreSQL-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// candidateBase returns the shared SELECT for dedup candidate lookups:
// live records of one user and type, newest first, at most one row.
func candidateBase(userID int64, recordType models.RecordType) sq.SelectBuilder {
	return psql.
		Select(recordColumns...).
		From("records").
		Where(sq.Eq{
			"user_id": userID,
			"type":    string(recordType),
			"deleted": false,
		}).
		OrderBy("created_at DESC").
		Limit(1)
}

// buildExactMatchQuery selects the newest record whose ciphertext, IV, salt,
// and currency are byte-identical to the candidate, created at or after since.
func buildExactMatchQuery(userID int64, recordType models.RecordType, payload models.EncryptedPayload, currency string, since interface{}) (string, []interface{}, error) {
	return candidateBase(userID, recordType).
		Where(sq.Eq{
			"data":     payload.Data,
			"iv":       payload.IV,
			"salt":     payload.Salt,
			"currency": currency,
		}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
}

// buildLengthMatchQuery selects the newest record with the same ciphertext
// length and currency created inside the [from, to] window.
func buildLengthMatchQuery(userID int64, recordType models.RecordType, length int, currency string, from, to interface{}) (string, []interface{}, error) {
	return candidateBase(userID, recordType).
		Where(sq.Eq{"currency": currency}).
		Where(sq.Expr("octet_length(data) = ?", length)).
		Where(sq.GtOrEq{"created_at": from}).
		Where(sq.LtOrEq{"created_at": to}).
		ToSql()
}

// buildLocalIDQuery selects the record carrying the given client correlation
// key, created at or after since.
func buildLocalIDQuery(userID int64, recordType models.RecordType, localID string, since interface{}) (string, []interface{}, error) {
	return candidateBase(userID, recordType).
		Where(sq.Eq{"local_id": localID}).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
}

// buildNewestSinceQuery selects the most recently created record of the user
// and type with created_at at or after since.
func buildNewestSinceQuery(userID int64, recordType models.RecordType, since interface{}) (string, []interface{}, error) {
	return candidateBase(userID, recordType).
		Where(sq.GtOrEq{"created_at": since}).
		ToSql()
}
