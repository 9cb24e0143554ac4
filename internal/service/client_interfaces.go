package service

import (
	"context"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/servicemock/client_service_mock.go -package=servicemock

// ClientRecordService is the local write path of the application. Every
// mutation is routed through the syncmeta package so the envelope
// invariants hold for every record that reaches the store.
type ClientRecordService interface {
	// Create stores a new record with a generated id.
	Create(ctx context.Context, table string, fields map[string]any) (models.Record, error)

	// Put creates the record with the given id or updates it when it exists.
	Put(ctx context.Context, table, id string, fields map[string]any) (models.Record, error)

	// Update replaces the payload of an existing, non-deleted record.
	Update(ctx context.Context, table, id string, fields map[string]any) (models.Record, error)

	// Delete tombstones the record. Deleting a tombstone is a no-op.
	Delete(ctx context.Context, table, id string) (models.Record, error)

	Get(ctx context.Context, table, id string) (models.Record, error)

	// List returns the live (non-deleted) records of table.
	List(ctx context.Context, table string) ([]models.Record, error)
}

// DirtyHarvester collects pending local changes in wire representation.
type DirtyHarvester interface {
	// Harvest returns at most one batch of dirty records of table.
	Harvest(ctx context.Context, table string) (HarvestResult, error)

	// HarvestAll harvests every syncable table in declared order.
	HarvestAll(ctx context.Context) ([]HarvestResult, error)
}

// ConflictResolver picks the winner of an incoming remote upsert that
// targets an id which exists locally.
type ConflictResolver interface {
	Resolve(local, remote models.Record) Resolution
}

// ChangeApplier writes remote changes of one table into the local store.
type ChangeApplier interface {
	Apply(ctx context.Context, table string, changes models.TableChanges) ApplyResult
}

// CursorManager persists the opaque remote cursor of this device.
type CursorManager interface {
	// Load returns nil when no cursor was stored yet.
	Load(ctx context.Context) (*string, error)
	Save(ctx context.Context, cursor string) error
	Clear(ctx context.Context) error
}

// RetryQueue holds discrete operations that failed transmission and replays
// them with exponential backoff. It assumes a single consumer.
type RetryQueue interface {
	Enqueue(ctx context.Context, op models.QueueOperation) (models.QueueOperation, error)
	GetNextOperations(ctx context.Context, limit int) ([]models.QueueOperation, error)
	MarkSuccess(ctx context.Context, id string) error

	// MarkFailure records a failed attempt. It reports whether the operation
	// was dropped permanently because it ran out of retries.
	MarkFailure(ctx context.Context, id string, cause error) (bool, error)

	// Cleanup purges exhausted operations and operations older than the
	// retention window. It returns the number of removed operations.
	Cleanup(ctx context.Context) (int64, error)
	Size(ctx context.Context) (int, error)
	List(ctx context.Context) ([]models.QueueOperation, error)
	Clear(ctx context.Context) error

	// Drain sends up to limit ready operations through sender. Only one
	// drain may run at a time; a concurrent call fails with
	// ErrDrainInProgress.
	Drain(ctx context.Context, sender adapter.OperationSender, limit int) (DrainResult, error)
}

// OperationDispatcher sends a discrete operation right away and falls back
// to the retry queue when it cannot be delivered.
type OperationDispatcher interface {
	// Dispatch reports whether the operation was queued instead of sent.
	Dispatch(ctx context.Context, op models.QueueOperation) (bool, error)
}

// SyncOrchestrator runs sync passes and exposes the engine state.
type SyncOrchestrator interface {
	// Sync runs a pass. Concurrent non-forced calls join the pass in flight
	// and receive the same result. Returning early because ctx is done does
	// not cancel the pass.
	Sync(ctx context.Context, force bool) models.SyncResult

	// ForceSync is Sync(ctx, true).
	ForceSync(ctx context.Context) models.SyncResult

	// OnStatusChange subscribes to status updates. The returned function
	// unsubscribes.
	OnStatusChange() (<-chan models.SyncStatus, func())

	Status(ctx context.Context) models.SyncStatus
	HasChangesToSync(ctx context.Context) (bool, error)

	// ClearSyncData forgets the cursor, sync timestamps and retry queue.
	// The next pass is an initial full sync.
	ClearSyncData(ctx context.Context) error

	// HandleNetworkChange records the new connectivity and runs a pass when
	// the device came online while authenticated. It reports whether a pass
	// ran.
	HandleNetworkChange(ctx context.Context, online bool) (models.SyncResult, bool)
}

// ClientSyncJob drives sync passes and queue drains in the background.
type ClientSyncJob interface {
	// Start stops a running job and launches a new one bound to ctx.
	Start(ctx context.Context)

	// Stop cancels the job and waits until its goroutines exited.
	Stop()
}
