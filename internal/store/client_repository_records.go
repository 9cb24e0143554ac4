// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/models"
)

type localRecordRepository struct {
	*DB
	logger *logger.Logger
}

func NewLocalRecordRepository(db *DB, logger *logger.Logger) LocalRecordRepository {
	return &localRecordRepository{
		DB:     db,
		logger: logger,
	}
}

func (l *localRecordRepository) Save(ctx context.Context, records ...models.Record) error {
	log := logger.FromContext(ctx)

	err := l.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range records {
			args, err := recordArgs(r)
			if err != nil {
				log.Err(err).
					Str("func", "localRecordRepository.Save").
					Str("table", r.Table).
					Str("id", r.ID).
					Msg("failed to encode record")
				return err
			}

			if _, err = tx.ExecContext(ctx, upsertRecord, args...); err != nil {
				log.Err(err).
					Str("func", "localRecordRepository.Save").
					Str("table", r.Table).
					Str("id", r.ID).
					Msg("failed to execute upsert for record")
				return fmt.Errorf("%w: failed to save record (%s/%s): %w", ErrExecutingStatement, r.Table, r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Err(err).Str("func", "localRecordRepository.Save").Int("records", len(records)).Msg("failed to save records")
		return err
	}

	return nil
}

func (l *localRecordRepository) Replace(ctx context.Context, r models.Record, expectedVersion int64) (bool, error) {
	log := logger.FromContext(ctx)

	args, err := recordArgs(r)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.Replace").
			Str("table", r.Table).
			Str("id", r.ID).
			Msg("failed to encode record")
		return false, err
	}

	var query string
	if expectedVersion == 0 {
		query = insertRecordIfAbsent
	} else {
		query, args, err = psql.Update(recordsTable).
			SetMap(recordSetMap(args)).
			Where(sq.Eq{"table_name": r.Table, "id": r.ID, "version": expectedVersion}).
			ToSql()
		if err != nil {
			log.Err(err).Str("func", "localRecordRepository.Replace").Msg("failed to build update query")
			return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}
	}

	res, err := l.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.Replace").
			Str("table", r.Table).
			Str("id", r.ID).
			Int64("expected_version", expectedVersion).
			Msg("failed to replace record")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected > 0, nil
}

func (l *localRecordRepository) Get(ctx context.Context, table, id string) (models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := selectRecords().
		Where(sq.Eq{"table_name": table, "id": id}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "localRecordRepository.Get").Msg("failed to build select query")
		return models.Record{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	r, err := scanRecord(l.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.Get").
			Str("table", table).
			Str("id", id).
			Msg("failed to scan record row")
		return models.Record{}, err
	}

	return r, nil
}

func (l *localRecordRepository) List(ctx context.Context, table string) ([]models.Record, error) {
	q := selectRecords().
		Where(sq.Eq{"table_name": table}).
		OrderBy("updated_at", "id")

	return l.query(ctx, "localRecordRepository.List", q)
}

func (l *localRecordRepository) ListDirty(ctx context.Context, table string, limit int) ([]models.Record, error) {
	q := selectRecords().
		Where(sq.Eq{"table_name": table, "dirty": int(models.Pending)}).
		OrderBy("updated_at", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	return l.query(ctx, "localRecordRepository.ListDirty", q)
}

func (l *localRecordRepository) ListUnowned(ctx context.Context) ([]models.Record, error) {
	q := selectRecords().
		Where(sq.Or{sq.Eq{"owner_id": nil}, sq.Eq{"owner_id": ""}}).
		OrderBy("table_name", "id")

	return l.query(ctx, "localRecordRepository.ListUnowned", q)
}

func (l *localRecordRepository) CountDirty(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Select("COUNT(*)").
		From(recordsTable).
		Where(sq.Eq{"dirty": int(models.Pending)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var n int
	if err = l.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		log.Err(err).Str("func", "localRecordRepository.CountDirty").Msg("failed to count dirty records")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return n, nil
}

func (l *localRecordRepository) MarkSynced(ctx context.Context, table string, meta models.SyncMetadata) (bool, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Update(recordsTable).
		Set("dirty", int(meta.Dirty)).
		Set("synced_at", formatNullTime(meta.SyncedAt)).
		Where(sq.Eq{"table_name": table, "id": meta.ID, "version": meta.Version}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := l.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "localRecordRepository.MarkSynced").
			Str("table", table).
			Str("id", meta.ID).
			Int64("version", meta.Version).
			Msg("failed to mark record as synced")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected > 0, nil
}

func (l *localRecordRepository) ClearSyncFlags(ctx context.Context) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.Update(recordsTable).Set("synced_at", nil).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = l.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "localRecordRepository.ClearSyncFlags").Msg("failed to clear sync flags")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (l *localRecordRepository) query(ctx context.Context, fn string, q sq.SelectBuilder) ([]models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := q.ToSql()
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to build select query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute query for records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			log.Err(err).Str("func", fn).Msg("failed to scan record row")
			return nil, err
		}
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", fn).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var (
		r                    models.Record
		owner, syncedAt      sql.NullString
		createdAt, updatedAt string
		dirty                int
		op, fields           string
	)

	err := row.Scan(
		&r.Table,
		&r.ID,
		&owner,
		&createdAt,
		&updatedAt,
		&r.Deleted,
		&r.Version,
		&dirty,
		&op,
		&syncedAt,
		&fields,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if owner.Valid && owner.String != "" {
		o := owner.String
		r.OwnerID = &o
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return r, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return r, err
	}
	if syncedAt.Valid {
		at, err := parseTime(syncedAt.String)
		if err != nil {
			return r, err
		}
		r.SyncedAt = &at
	}
	r.Dirty = models.DirtyFlag(dirty)
	r.Op = models.Op(op)

	if err = json.Unmarshal([]byte(fields), &r.Fields); err != nil {
		return r, fmt.Errorf("%w: fields of %s/%s: %w", ErrDecodingColumn, r.Table, r.ID, err)
	}

	return r, nil
}

func recordArgs(r models.Record) ([]any, error) {
	fields := r.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: fields of %s/%s: %w", ErrDecodingColumn, r.Table, r.ID, err)
	}

	var owner any
	if r.OwnerID != nil {
		owner = *r.OwnerID
	}

	return []any{
		r.Table,
		r.ID,
		owner,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
		r.Deleted,
		r.Version,
		int(r.Dirty),
		string(r.Op),
		formatNullTime(r.SyncedAt),
		string(payload),
	}, nil
}

// recordSetMap turns recordArgs into the SET clause of an UPDATE.
func recordSetMap(args []any) map[string]any {
	set := make(map[string]any, len(recordColumns)-2)
	for i, col := range recordColumns {
		if col == "table_name" || col == "id" {
			continue
		}
		set[col] = args[i]
	}
	return set
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %w", ErrDecodingColumn, s, err)
	}
	return t.UTC(), nil
}
