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

type queueRepository struct {
	*DB
	logger *logger.Logger
}

func NewQueueRepository(db *DB, logger *logger.Logger) QueueRepository {
	return &queueRepository{DB: db, logger: logger}
}

func (q *queueRepository) Insert(ctx context.Context, op models.QueueOperation) error {
	log := logger.FromContext(ctx)

	values, err := queueArgs(op)
	if err != nil {
		return err
	}

	query, args, err := psql.Insert(queueTable).Columns(queueColumns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = q.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "queueRepository.Insert").Str("operation_id", op.ID).Msg("failed to insert queue operation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (q *queueRepository) Get(ctx context.Context, id string) (models.QueueOperation, error) {
	log := logger.FromContext(ctx)

	query, args, err := selectQueue().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.QueueOperation{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	op, err := scanOperation(q.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.QueueOperation{}, ErrOperationNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "queueRepository.Get").Str("operation_id", id).Msg("failed to scan queue operation")
		return models.QueueOperation{}, err
	}

	return op, nil
}

func (q *queueRepository) Update(ctx context.Context, op models.QueueOperation) error {
	log := logger.FromContext(ctx)

	query, args, err := psql.Update(queueTable).
		Set("retry_count", op.RetryCount).
		Set("next_retry_at", op.NextRetryAt).
		Set("last_error", op.LastError).
		Where(sq.Eq{"id": op.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "queueRepository.Update").Str("operation_id", op.ID).Msg("failed to update queue operation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOperationNotFound
	}

	return nil
}

func (q *queueRepository) Delete(ctx context.Context, id string) error {
	_, err := q.exec(ctx, "queueRepository.Delete", psql.Delete(queueTable).Where(sq.Eq{"id": id}))
	return err
}

func (q *queueRepository) ListReady(ctx context.Context, now time.Time, limit int) ([]models.QueueOperation, error) {
	b := selectQueue().
		Where(sq.LtOrEq{"next_retry_at": now.UnixMilli()}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("priority_rank ASC", "timestamp ASC", "id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	return q.query(ctx, "queueRepository.ListReady", b)
}

func (q *queueRepository) List(ctx context.Context) ([]models.QueueOperation, error) {
	return q.query(ctx, "queueRepository.List", selectQueue().OrderBy("priority_rank ASC", "timestamp ASC", "id ASC"))
}

func (q *queueRepository) Count(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	query, args, err := psql.Select("COUNT(*)").From(queueTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var n int
	if err = q.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		log.Err(err).Str("func", "queueRepository.Count").Msg("failed to count queue operations")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return n, nil
}

func (q *queueRepository) DeleteFailed(ctx context.Context) (int64, error) {
	return q.exec(ctx, "queueRepository.DeleteFailed",
		psql.Delete(queueTable).Where(sq.Expr("retry_count >= max_retries")))
}

func (q *queueRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return q.exec(ctx, "queueRepository.DeleteOlderThan",
		psql.Delete(queueTable).Where(sq.Lt{"timestamp": cutoff.UnixMilli()}))
}

func (q *queueRepository) DeleteAll(ctx context.Context) error {
	_, err := q.exec(ctx, "queueRepository.DeleteAll", psql.Delete(queueTable))
	return err
}

func (q *queueRepository) exec(ctx context.Context, fn string, b sq.DeleteBuilder) (int64, error) {
	log := logger.FromContext(ctx)

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to delete queue operations")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return n, nil
}

func (q *queueRepository) query(ctx context.Context, fn string, b sq.SelectBuilder) ([]models.QueueOperation, error) {
	log := logger.FromContext(ctx)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to execute query for queue operations")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var ops []models.QueueOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			log.Err(err).Str("func", fn).Msg("failed to scan queue operation")
			return nil, err
		}
		ops = append(ops, op)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return ops, nil
}

func scanOperation(row rowScanner) (models.QueueOperation, error) {
	var (
		op        models.QueueOperation
		payload   string
		timestamp int64
		rank      int
	)

	err := row.Scan(
		&op.ID,
		&op.Type,
		&op.Endpoint,
		&payload,
		&timestamp,
		&op.RetryCount,
		&op.MaxRetries,
		&op.NextRetryAt,
		&op.Priority,
		&rank,
		&op.LastError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return op, err
	}
	if err != nil {
		return op, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	op.Timestamp = time.UnixMilli(timestamp).UTC()
	if err = json.Unmarshal([]byte(payload), &op.Payload); err != nil {
		return op, fmt.Errorf("%w: payload of operation %s: %w", ErrDecodingColumn, op.ID, err)
	}

	return op, nil
}

func queueArgs(op models.QueueOperation) ([]any, error) {
	payload := op.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload of operation %s: %w", ErrDecodingColumn, op.ID, err)
	}

	return []any{
		op.ID,
		string(op.Type),
		op.Endpoint,
		string(body),
		op.Timestamp.UnixMilli(),
		op.RetryCount,
		op.MaxRetries,
		op.NextRetryAt,
		string(op.Priority),
		op.Priority.Rank(),
		op.LastError,
	}, nil
}
