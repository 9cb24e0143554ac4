package store

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	remoteRecordsTable = "remote_records"
	remoteCounterTable = "remote_counter"
)

var remoteColumns = []string{
	"owner_id", "table_name", "id", "created_at", "updated_at",
	"deleted", "version", "wire", "seq", "device_id",
}

// pgsql builds queries with PostgreSQL "$n" placeholders.
var pgsql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	// lockRemoteCounter serialises writers for the rest of the transaction.
	lockRemoteCounter = `SELECT seq FROM remote_counter WHERE id = 1 FOR UPDATE`

	nextRemoteSeq = `UPDATE remote_counter SET seq = seq + 1 WHERE id = 1 RETURNING seq`

	upsertRemoteRecord = `INSERT INTO remote_records (
			owner_id, table_name, id, created_at, updated_at,
			deleted, version, wire, seq, device_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id, table_name, id) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted,
			version = EXCLUDED.version,
			wire = EXCLUDED.wire,
			seq = EXCLUDED.seq,
			device_id = EXCLUDED.device_id`

	markOperationApplied = `INSERT INTO applied_operations (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
)

func selectRemote() sq.SelectBuilder {
	return pgsql.Select(remoteColumns...).From(remoteRecordsTable)
}
