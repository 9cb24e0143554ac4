package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrRecordNotFound is returned when no record with the requested table
	// and id exists in the local store.
	ErrRecordNotFound = errors.New("record was not found")

	// ErrStateNotFound is returned when a sync state key was never written.
	ErrStateNotFound = errors.New("sync state key was not found")

	// ErrOperationNotFound is returned when a queue operation does not exist,
	// e.g. because it was already acknowledged or dropped.
	ErrOperationNotFound = errors.New("queue operation was not found")

	// ErrRemoteEntryNotFound is returned by the remote store for a record
	// that was never written.
	ErrRemoteEntryNotFound = errors.New("remote record was not found")

	// ErrRecordNotSaved is returned when an upsert affected no rows.
	ErrRecordNotSaved = errors.New("record was not saved")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to executing statement")

	// ErrScanningRow is returned when scanning column values from a result
	// row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrDecodingColumn is returned when a stored column (timestamp, JSON
	// payload) cannot be decoded.
	ErrDecodingColumn = errors.New("failed to decode column")
)
