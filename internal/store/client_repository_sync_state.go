package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/logger"
)

// Well-known sync state keys.
const (
	StateKeyDeviceID    = "device_id"
	StateKeyAccessToken = "access_token"
	StateKeyConsent     = "consent"
	StateKeyLastSyncAt  = "last_sync_at"
	StateKeyLastSuccess = "last_success_at"

	stateKeyCursorPrefix = "cursor:"
)

// CursorKey returns the sync state key of the cursor of deviceID.
func CursorKey(deviceID string) string {
	return stateKeyCursorPrefix + deviceID
}

type syncStateRepository struct {
	*DB
	logger *logger.Logger
}

func NewSyncStateRepository(db *DB, logger *logger.Logger) SyncStateRepository {
	return &syncStateRepository{DB: db, logger: logger}
}

func (s *syncStateRepository) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContext(ctx)

	var value string
	err := s.DB.QueryRowContext(ctx, selectState, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrStateNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "syncStateRepository.Get").Str("key", key).Msg("failed to read sync state")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

func (s *syncStateRepository) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx)

	if _, err := s.DB.ExecContext(ctx, upsertState, key, value, formatTime(time.Now())); err != nil {
		log.Err(err).Str("func", "syncStateRepository.Set").Str("key", key).Msg("failed to write sync state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (s *syncStateRepository) Delete(ctx context.Context, key string) error {
	log := logger.FromContext(ctx)

	if _, err := s.DB.ExecContext(ctx, deleteState, key); err != nil {
		log.Err(err).Str("func", "syncStateRepository.Delete").Str("key", key).Msg("failed to delete sync state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
