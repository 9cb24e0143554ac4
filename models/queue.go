package models

import "time"

// OperationType is the kind of mutation a queued operation replays.
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// Priority orders ready operations: high before medium before low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of p; lower ranks are served first. Unknown
// priorities are served last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// DefaultMaxRetries is used when an operation is enqueued without a limit.
const DefaultMaxRetries = 5

// QueueOperation is a discrete mutation that failed transmission and is
// retried on its own schedule, outside the bulk table sync.
type QueueOperation struct {
	// ID is assigned on enqueue.
	ID string `json:"id"`

	// Type is the mutation kind (create/update/delete).
	Type OperationType `json:"type" validate:"required,oneof=create update delete"`

	// Endpoint is the remote target of the operation, e.g. a table name.
	Endpoint string `json:"endpoint" validate:"required"`

	// Payload is the opaque body of the operation.
	Payload map[string]any `json:"payload"`

	// Timestamp is the enqueue time.
	Timestamp time.Time `json:"timestamp"`

	// RetryCount is the number of failed attempts so far.
	RetryCount int `json:"retryCount"`

	// MaxRetries is the number of failures after which the operation is
	// dropped permanently.
	MaxRetries int `json:"maxRetries"`

	// NextRetryAt is the earliest time of the next attempt, epoch millis.
	NextRetryAt int64 `json:"nextRetryAt"`

	// Priority orders ready operations.
	Priority Priority `json:"priority" validate:"omitempty,oneof=high medium low"`

	// LastError is the message of the most recent failure.
	LastError string `json:"lastError,omitempty"`
}

// Exhausted reports whether the operation used up all its retries.
func (o QueueOperation) Exhausted() bool {
	return o.RetryCount >= o.MaxRetries
}
