package store

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	recordsTable = "records"
	stateTable   = "sync_state"
	queueTable   = "queue_operations"
)

var recordColumns = []string{
	"table_name", "id", "owner_id", "created_at", "updated_at",
	"deleted", "version", "dirty", "op", "synced_at", "fields",
}

var queueColumns = []string{
	"id", "type", "endpoint", "payload", "timestamp", "retry_count",
	"max_retries", "next_retry_at", "priority", "priority_rank", "last_error",
}

const (
	upsertRecord = `INSERT INTO records (
			table_name, id, owner_id, created_at, updated_at,
			deleted, version, dirty, op, synced_at, fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (table_name, id) DO UPDATE SET
			owner_id = excluded.owner_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted = excluded.deleted,
			version = excluded.version,
			dirty = excluded.dirty,
			op = excluded.op,
			synced_at = excluded.synced_at,
			fields = excluded.fields;`

	insertRecordIfAbsent = `INSERT INTO records (
			table_name, id, owner_id, created_at, updated_at,
			deleted, version, dirty, op, synced_at, fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (table_name, id) DO NOTHING;`

	upsertState = `INSERT INTO sync_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`

	selectState = `SELECT value FROM sync_state WHERE key = ?;`
	deleteState = `DELETE FROM sync_state WHERE key = ?;`
)

// psql builds queries with sqlite "?" placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func selectRecords() sq.SelectBuilder {
	return psql.Select(recordColumns...).From(recordsTable)
}

func selectQueue() sq.SelectBuilder {
	return psql.Select(queueColumns...).From(queueTable)
}
