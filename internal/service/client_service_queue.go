// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/internal/validators"
	"github.com/MKhiriev/repcue-sync/models"
)

// DrainResult summarises one drain of the retry queue.
type DrainResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"`
}

type retryQueue struct {
	repo      store.QueueRepository
	validator validators.Validator
	ids       utils.IDGenerator
	cfg       config.ClientQueue
	now       func() time.Time

	// single consumer
	drainMu sync.Mutex

	logger *logger.Logger
}

// NewRetryQueue returns a retry queue persisted in repo.
func NewRetryQueue(repo store.QueueRepository, validator validators.Validator, ids utils.IDGenerator, cfg config.ClientQueue, logger *logger.Logger) RetryQueue {
	return &retryQueue{
		repo:      repo,
		validator: validator,
		ids:       ids,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
}

// Enqueue stores op as a fresh pending operation. When the queue reached its
// size cap, exhausted and expired operations are purged first; the new
// operation is stored even if the cap is still exceeded afterwards.
func (q *retryQueue) Enqueue(ctx context.Context, op models.QueueOperation) (models.QueueOperation, error) {
	log := logger.FromContext(ctx)

	if err := q.validator.Validate(ctx, op); err != nil {
		return models.QueueOperation{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}

	size, err := q.repo.Count(ctx)
	if err != nil {
		return models.QueueOperation{}, fmt.Errorf("enqueue: %w", err)
	}
	if q.cfg.MaxSize > 0 && size >= q.cfg.MaxSize {
		removed, err := q.Cleanup(ctx)
		if err != nil {
			return models.QueueOperation{}, fmt.Errorf("enqueue: %w", err)
		}
		if int(removed) <= size-q.cfg.MaxSize {
			log.Warn().Str("func", "retryQueue.Enqueue").Int("size", size-int(removed)).
				Int("max_size", q.cfg.MaxSize).Msg("retry queue is over capacity")
		}
	}

	now := q.now()
	op.ID = q.ids.Generate()
	op.Timestamp = now.UTC()
	op.RetryCount = 0
	op.NextRetryAt = now.UnixMilli()
	op.LastError = ""
	if op.MaxRetries <= 0 {
		op.MaxRetries = q.maxRetries()
	}
	if op.Priority == "" {
		op.Priority = models.PriorityMedium
	}

	if err = q.repo.Insert(ctx, op); err != nil {
		log.Err(err).Str("func", "retryQueue.Enqueue").Str("endpoint", op.Endpoint).Msg("error inserting operation")
		return models.QueueOperation{}, fmt.Errorf("enqueue: %w", err)
	}

	log.Debug().Str("func", "retryQueue.Enqueue").Str("op_id", op.ID).Str("type", string(op.Type)).
		Str("endpoint", op.Endpoint).Msg("operation enqueued")
	return op, nil
}

func (q *retryQueue) GetNextOperations(ctx context.Context, limit int) ([]models.QueueOperation, error) {
	ops, err := q.repo.ListReady(ctx, q.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("next operations: %w", err)
	}
	return ops, nil
}

func (q *retryQueue) MarkSuccess(ctx context.Context, id string) error {
	if _, err := q.get(ctx, id); err != nil {
		return err
	}
	if err := q.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("mark success: %w", err)
	}
	return nil
}

// MarkFailure increments the retry counter. The operation is removed once it
// reached its retry limit; otherwise it becomes ready again after
// baseDelay*multiplier^retryCount.
func (q *retryQueue) MarkFailure(ctx context.Context, id string, cause error) (bool, error) {
	log := logger.FromContext(ctx)

	op, err := q.get(ctx, id)
	if err != nil {
		return false, err
	}

	op.RetryCount++
	if cause != nil {
		op.LastError = cause.Error()
	}

	if op.Exhausted() {
		if err = q.repo.Delete(ctx, id); err != nil {
			return false, fmt.Errorf("mark failure: %w", err)
		}
		log.Error().Err(ErrMaxRetriesExceeded).Str("func", "retryQueue.MarkFailure").
			Str("op_id", op.ID).Str("endpoint", op.Endpoint).Int("retries", op.RetryCount).
			Str("last_error", op.LastError).Msg("operation dropped permanently")
		return true, nil
	}

	delay := q.backoff(op.RetryCount)
	op.NextRetryAt = q.now().Add(delay).UnixMilli()
	if err = q.repo.Update(ctx, op); err != nil {
		if errors.Is(err, store.ErrOperationNotFound) {
			return false, ErrOperationNotFound
		}
		return false, fmt.Errorf("mark failure: %w", err)
	}

	log.Debug().Str("func", "retryQueue.MarkFailure").Str("op_id", op.ID).Int("retries", op.RetryCount).
		Dur("delay", delay).Msg("operation rescheduled")
	return false, nil
}

func (q *retryQueue) Cleanup(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	failed, err := q.repo.DeleteFailed(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}
	expired, err := q.repo.DeleteOlderThan(ctx, q.now().Add(-q.cfg.Retention))
	if err != nil {
		return failed, fmt.Errorf("cleanup: %w", err)
	}

	if failed+expired > 0 {
		log.Info().Str("func", "retryQueue.Cleanup").Int64("failed", failed).Int64("expired", expired).
			Msg("retry queue cleaned up")
	}
	return failed + expired, nil
}

func (q *retryQueue) Size(ctx context.Context) (int, error) {
	return q.repo.Count(ctx)
}

func (q *retryQueue) List(ctx context.Context) ([]models.QueueOperation, error) {
	return q.repo.List(ctx)
}

func (q *retryQueue) Clear(ctx context.Context) error {
	return q.repo.DeleteAll(ctx)
}

func (q *retryQueue) Drain(ctx context.Context, sender adapter.OperationSender, limit int) (DrainResult, error) {
	var result DrainResult

	if !q.drainMu.TryLock() {
		return result, ErrDrainInProgress
	}
	defer q.drainMu.Unlock()

	if limit <= 0 {
		limit = q.cfg.DrainBatch
	}

	ops, err := q.GetNextOperations(ctx, limit)
	if err != nil {
		return result, err
	}

	for _, op := range ops {
		if err = ctx.Err(); err != nil {
			return result, err
		}

		if sendErr := sender.Send(ctx, op); sendErr != nil {
			dropped, err := q.MarkFailure(ctx, op.ID, sendErr)
			if err != nil {
				return result, err
			}
			if dropped {
				result.Dropped++
			} else {
				result.Failed++
			}
			continue
		}

		if err = q.MarkSuccess(ctx, op.ID); err != nil {
			return result, err
		}
		result.Sent++
	}

	return result, nil
}

func (q *retryQueue) get(ctx context.Context, id string) (models.QueueOperation, error) {
	op, err := q.repo.Get(ctx, id)
	if errors.Is(err, store.ErrOperationNotFound) {
		return op, ErrOperationNotFound
	}
	if err != nil {
		return op, fmt.Errorf("get operation %s: %w", id, err)
	}
	return op, nil
}

func (q *retryQueue) backoff(retryCount int) time.Duration {
	base := q.cfg.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	mult := q.cfg.Multiplier
	if mult < 1 {
		mult = 2
	}
	return time.Duration(float64(base) * math.Pow(mult, float64(retryCount)))
}

func (q *retryQueue) maxRetries() int {
	if q.cfg.MaxRetries > 0 {
		return q.cfg.MaxRetries
	}
	return models.DefaultMaxRetries
}

type operationDispatcher struct {
	sender  adapter.OperationSender
	queue   RetryQueue
	network capability.Network
}

// NewOperationDispatcher returns a dispatcher that sends through sender and
// queues into queue when the device is offline or the send fails.
func NewOperationDispatcher(sender adapter.OperationSender, queue RetryQueue, network capability.Network) OperationDispatcher {
	return &operationDispatcher{sender: sender, queue: queue, network: network}
}

func (d *operationDispatcher) Dispatch(ctx context.Context, op models.QueueOperation) (bool, error) {
	log := logger.FromContext(ctx)

	if d.network == nil || d.network.IsOnline() {
		err := d.sender.Send(ctx, op)
		if err == nil {
			return false, nil
		}
		if adapter.KindOf(err) == adapter.KindValidation {
			return false, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		log.Warn().Err(err).Str("func", "operationDispatcher.Dispatch").Str("endpoint", op.Endpoint).
			Msg("send failed, queueing operation")
	}

	if _, err := d.queue.Enqueue(ctx, op); err != nil {
		return false, err
	}
	return true, nil
}
