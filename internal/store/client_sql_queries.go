package store

// bootstrapLocalSchema creates the on-device tables and indexes. Every
// statement is idempotent so the bootstrap can run on each startup.
const bootstrapLocalSchema = `
	CREATE TABLE IF NOT EXISTS records (
		local_id     TEXT NOT NULL,
		user_id      INTEGER NOT NULL,
		server_id    TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL,
		data         BLOB NOT NULL,
		iv           BLOB NOT NULL,
		salt         BLOB NOT NULL,
		currency     TEXT NOT NULL,
		version      INTEGER NOT NULL DEFAULT 1,
		sync_status  TEXT NOT NULL DEFAULT 'pending',
		deleted      INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL,
		last_sync_at TIMESTAMP,
		PRIMARY KEY (user_id, local_id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_user_type_created
		ON records (user_id, type, created_at);

	CREATE INDEX IF NOT EXISTS idx_records_user_status
		ON records (user_id, sync_status);

	CREATE TABLE IF NOT EXISTS pending_sync (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id         INTEGER NOT NULL,
		kind            TEXT NOT NULL,
		record_local_id TEXT NOT NULL,
		payload         BLOB NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		attempts        INTEGER NOT NULL DEFAULT 0,
		last_error      TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS flush_queue (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		queue    TEXT NOT NULL,
		position INTEGER NOT NULL,
		payload  BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_flush_queue_order
		ON flush_queue (queue, position, id);`

const (
	saveLocalRecord = `
		INSERT INTO records (
			local_id,
			user_id,
			server_id,
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

	getLocalRecord = `
		SELECT
			local_id, user_id, server_id, type, data, iv, salt, currency,
			version, sync_status, deleted, created_at, updated_at, last_sync_at
		FROM records
		WHERE user_id = $1 AND local_id = $2;`

	updateLocalRecord = `
		UPDATE records SET
			data         = $1,
			iv           = $2,
			salt         = $3,
			currency     = $4,
			version      = $5,
			sync_status  = $6,
			deleted      = $7,
			updated_at   = $8,
			last_sync_at = $9
		WHERE user_id = $10 AND local_id = $11;`

	markLocalRecordSynced = `
		UPDATE records SET
			server_id    = $1,
			version      = $2,
			sync_status  = 'synced',
			last_sync_at = $3
		WHERE user_id = $4 AND local_id = $5;`

	markLocalRecordStatus = `
		UPDATE records SET
			sync_status = $1
		WHERE user_id = $2 AND local_id = $3;`

	listLocalRecordsByType = `
		SELECT
			local_id, user_id, server_id, type, data, iv, salt, currency,
			version, sync_status, deleted, created_at, updated_at, last_sync_at
		FROM records
		WHERE user_id = $1 AND type = $2 AND deleted = 0
		ORDER BY created_at DESC;`

	listLocalRecordsByStatus = `
		SELECT
			local_id, user_id, server_id, type, data, iv, salt, currency,
			version, sync_status, deleted, created_at, updated_at, last_sync_at
		FROM records
		WHERE user_id = $1 AND sync_status = $2
		ORDER BY created_at ASC;`
)

const (
	enqueuePendingOperation = `
		INSERT INTO pending_sync (
			user_id,
			kind,
			record_local_id,
			payload,
			created_at,
			attempts,
			last_error
		) VALUES ($1, $2, $3, $4, $5, $6, $7);`

	listPendingOperations = `
		SELECT
			id, user_id, kind, record_local_id, payload,
			created_at, attempts, last_error
		FROM pending_sync
		WHERE user_id = $1
		ORDER BY id ASC;`

	dequeuePendingOperation = `
		DELETE FROM pending_sync
		WHERE id = $1;`

	markPendingAttempt = `
		UPDATE pending_sync SET
			attempts   = attempts + 1,
			last_error = $1
		WHERE id = $2;`
)

const (
	pushFlushBack = `
		INSERT INTO flush_queue (queue, position, payload)
		SELECT $1, COALESCE(MAX(position), 0) + 1, $2
		FROM flush_queue WHERE queue = $1;`

	peekFlushFront = `
		SELECT id, payload
		FROM flush_queue
		WHERE queue = $1
		ORDER BY position ASC, id ASC
		LIMIT 1;`

	deleteFlushEntry = `
		DELETE FROM flush_queue
		WHERE id = $1;`

	listFlushEntries = `
		SELECT payload
		FROM flush_queue
		WHERE queue = $1
		ORDER BY position ASC, id ASC;`

	countFlushEntries = `
		SELECT COUNT(*)
		FROM flush_queue
		WHERE queue = $1;`
)
