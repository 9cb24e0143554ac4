package store

import (
	"context"
	"time"

	"github.com/MKhiriev/repcue-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalRecordRepository stores syncable records of all tables. Envelope
// changes must be computed with the syncmeta package before they reach it.
type LocalRecordRepository interface {
	// Save inserts or fully replaces the given records.
	Save(ctx context.Context, records ...models.Record) error
	// Replace writes r only if the stored version still equals
	// expectedVersion (0 means "must not exist yet"). It reports whether the
	// write happened.
	Replace(ctx context.Context, r models.Record, expectedVersion int64) (bool, error)
	Get(ctx context.Context, table, id string) (models.Record, error)
	List(ctx context.Context, table string) ([]models.Record, error)
	ListDirty(ctx context.Context, table string, limit int) ([]models.Record, error)
	ListUnowned(ctx context.Context) ([]models.Record, error)
	CountDirty(ctx context.Context) (int, error)
	// MarkSynced persists the clean flag of meta if the stored version still
	// equals meta.Version. It reports whether the record was marked.
	MarkSynced(ctx context.Context, table string, meta models.SyncMetadata) (bool, error)
	// ClearSyncFlags drops the local acknowledgement timestamps.
	ClearSyncFlags(ctx context.Context) error
}

// SyncStateRepository is a small durable key/value store for the cursor,
// device id, access token and consent flag.
type SyncStateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// QueueRepository persists retry queue operations.
type QueueRepository interface {
	Insert(ctx context.Context, op models.QueueOperation) error
	Get(ctx context.Context, id string) (models.QueueOperation, error)
	Update(ctx context.Context, op models.QueueOperation) error
	Delete(ctx context.Context, id string) error
	// ListReady returns operations due at now that still have retries left,
	// by priority then enqueue time.
	ListReady(ctx context.Context, now time.Time, limit int) ([]models.QueueOperation, error)
	List(ctx context.Context) ([]models.QueueOperation, error)
	Count(ctx context.Context) (int, error)
	DeleteFailed(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAll(ctx context.Context) error
}
