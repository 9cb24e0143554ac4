// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/models"
)

// maxTxAttempts bounds reruns of a unit of work after a retryable failure.
const maxTxAttempts = 3

type postgresRemoteStore struct {
	db     *PostgresDB
	logger *logger.Logger
}

// NewPostgresRemoteStore returns a [RemoteStore] on db. Units of work are
// serialised on the remote_counter row.
func NewPostgresRemoteStore(db *PostgresDB, logger *logger.Logger) RemoteStore {
	return &postgresRemoteStore{db: db, logger: logger}
}

func (s *postgresRemoteStore) Tx(ctx context.Context, fn func(ctx context.Context, tx RemoteTx) error) error {
	log := logger.FromContext(ctx)

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if err = s.runTx(ctx, fn); err == nil {
			return nil
		}
		if s.db.errorClassificator.Classify(err) != Retryable || ctx.Err() != nil {
			return err
		}
		log.Warn().Err(err).Str("func", "postgresRemoteStore.Tx").Int("attempt", attempt).
			Msg("retrying unit of work")
	}
	return err
}

func (s *postgresRemoteStore) runTx(ctx context.Context, fn func(ctx context.Context, tx RemoteTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var seq int64
	if err = tx.QueryRowContext(ctx, lockRemoteCounter).Scan(&seq); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err = fn(ctx, &postgresRemoteTx{tx: tx, seq: seq}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

type postgresRemoteTx struct {
	tx  *sql.Tx
	seq int64
}

func (t *postgresRemoteTx) Get(ctx context.Context, ownerID, table, id string) (RemoteEntry, error) {
	query, args, err := selectRemote().
		Where(sq.Eq{"owner_id": ownerID, "table_name": table, "id": id}).
		ToSql()
	if err != nil {
		return RemoteEntry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	e, err := scanRemoteEntry(t.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return RemoteEntry{}, ErrRemoteEntryNotFound
	}
	return e, err
}

func (t *postgresRemoteTx) Put(ctx context.Context, e RemoteEntry) (RemoteEntry, error) {
	wire, err := json.Marshal(e.Wire)
	if err != nil {
		return RemoteEntry{}, fmt.Errorf("encode wire record: %w", err)
	}

	if err = t.tx.QueryRowContext(ctx, nextRemoteSeq).Scan(&e.Seq); err != nil {
		return RemoteEntry{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	_, err = t.tx.ExecContext(ctx, upsertRemoteRecord,
		e.OwnerID, e.Table, e.Meta.ID, e.Meta.CreatedAt.UTC(), e.Meta.UpdatedAt.UTC(),
		e.Meta.Deleted, e.Meta.Version, wire, e.Seq, e.Device,
	)
	if err != nil {
		return RemoteEntry{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	t.seq = e.Seq
	return e, nil
}

func (t *postgresRemoteTx) ChangesSince(ctx context.Context, ownerID string, since int64) ([]RemoteEntry, error) {
	query, args, err := selectRemote().
		Where(sq.Eq{"owner_id": ownerID}).
		Where(sq.Gt{"seq": since}).
		OrderBy("table_name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []RemoteEntry
	for rows.Next() {
		e, err := scanRemoteEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return out, nil
}

func (t *postgresRemoteTx) Cursor(context.Context) (int64, error) {
	return t.seq, nil
}

func (t *postgresRemoteTx) MarkApplied(ctx context.Context, opID string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, markOperationApplied, opID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return n == 1, nil
}

func scanRemoteEntry(row rowScanner) (RemoteEntry, error) {
	var (
		e    RemoteEntry
		wire []byte
	)
	err := row.Scan(
		&e.OwnerID, &e.Table, &e.Meta.ID, &e.Meta.CreatedAt, &e.Meta.UpdatedAt,
		&e.Meta.Deleted, &e.Meta.Version, &wire, &e.Seq, &e.Device,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RemoteEntry{}, err
		}
		return RemoteEntry{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if err = json.Unmarshal(wire, &e.Wire); err != nil {
		return RemoteEntry{}, fmt.Errorf("%w: wire: %w", ErrDecodingColumn, err)
	}
	owner := e.OwnerID
	e.Meta.OwnerID = &owner
	e.Meta.Dirty = models.Clean
	return e, nil
}
