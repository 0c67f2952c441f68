package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when a query targets a compensation
	// record (by id, local_id, or dedup criteria) that does not exist in
	// the database.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrRecordNotSaved is returned when an INSERT completes without error
	// but the number of affected rows is zero, indicating that nothing was
	// actually persisted.
	ErrRecordNotSaved = errors.New("record was not saved")

	// ErrStorageCapacity is returned when the underlying database reports
	// that it is out of space (PostgreSQL disk_full, SQLITE_FULL). Callers
	// map it to the capacity branch of the service error taxonomy.
	ErrStorageCapacity = errors.New("storage capacity exhausted")

	// ErrCorruptedRow is returned (or logged and skipped, for list
	// operations) when a stored row cannot be scanned into a record. The
	// offending row is flagged with sync_status=error so it can be
	// inspected without blocking the rest of the result set.
	ErrCorruptedRow = errors.New("corrupted record row")

	// ErrQueueEmpty is returned by queue pop operations when there is
	// nothing left to consume.
	ErrQueueEmpty = errors.New("queue is empty")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when a result row cannot be scanned into
	// the destination struct.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when an error is detected during result
	// set iteration, after individual rows have been scanned.
	ErrScanningRows = errors.New("error during rows iteration")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrCountingAffectedRows is returned when the driver cannot report how
	// many rows a DML statement affected.
	ErrCountingAffectedRows = errors.New("failed to count affected rows")
)
