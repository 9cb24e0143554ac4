package service

import "errors"

// Soft preconditions of a sync pass. They never fail the pass itself; they
// are logged and reported through the result.
var (
	ErrConsentDenied   = errors.New("sync consent was not granted")
	ErrUnauthenticated = errors.New("user is not authenticated")
	ErrOffline         = errors.New("device offline")
)

var (
	// ErrRecordProcessing wraps a failure of a single record during harvest
	// or apply. The batch continues with the remaining records.
	ErrRecordProcessing = errors.New("failed to process record")

	// ErrConcurrentModification is returned when a local write lost the
	// version compare-and-set more times than allowed.
	ErrConcurrentModification = errors.New("record was modified concurrently")

	ErrRecordNotFound = errors.New("record was not found")
	ErrUnknownTable   = errors.New("unknown table")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrEmptyDeleteID  = errors.New("remote delete has no id")
)

var (
	ErrMaxRetriesExceeded = errors.New("operation exceeded max retries")
	ErrOperationNotFound  = errors.New("queue operation was not found")
	ErrInvalidOperation   = errors.New("invalid queue operation")
	ErrDrainInProgress    = errors.New("queue drain is already running")
)

var (
	ErrEmptyCursor   = errors.New("cursor must not be empty")
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrEmptyDeviceID = errors.New("device id must not be empty")
	ErrForbidden     = errors.New("record belongs to another owner")
)

var ErrInvalidSyncRequest = errors.New("invalid sync request")
