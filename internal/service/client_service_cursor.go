package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/utils"
)

type cursorManager struct {
	state store.SyncStateRepository
	key   string
}

// NewCursorManager returns a cursor manager keyed by deviceID.
func NewCursorManager(state store.SyncStateRepository, deviceID string) CursorManager {
	return &cursorManager{state: state, key: store.CursorKey(deviceID)}
}

func (c *cursorManager) Load(ctx context.Context) (*string, error) {
	cursor, err := c.state.Get(ctx, c.key)
	if errors.Is(err, store.ErrStateNotFound) || (err == nil && cursor == "") {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "cursorManager.Load").Msg("error loading cursor")
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	return &cursor, nil
}

func (c *cursorManager) Save(ctx context.Context, cursor string) error {
	if cursor == "" {
		return ErrEmptyCursor
	}
	if err := c.state.Set(ctx, c.key, cursor); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "cursorManager.Save").Msg("error saving cursor")
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func (c *cursorManager) Clear(ctx context.Context) error {
	if err := c.state.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("clear cursor: %w", err)
	}
	return nil
}

// LoadDeviceID returns the stable identifier of this installation, generating
// and persisting one on first use.
func LoadDeviceID(ctx context.Context, state store.SyncStateRepository, ids utils.IDGenerator) (string, error) {
	log := logger.FromContext(ctx)

	id, err := state.Get(ctx, store.StateKeyDeviceID)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !errors.Is(err, store.ErrStateNotFound) {
		log.Err(err).Str("func", "LoadDeviceID").Msg("error reading device id")
		return "", fmt.Errorf("load device id: %w", err)
	}

	id = ids.Generate()
	if id == "" {
		return "", ErrEmptyDeviceID
	}
	if err = state.Set(ctx, store.StateKeyDeviceID, id); err != nil {
		log.Err(err).Str("func", "LoadDeviceID").Msg("error saving device id")
		return "", fmt.Errorf("save device id: %w", err)
	}

	log.Info().Str("func", "LoadDeviceID").Str("device_id", id).Msg("generated new device id")
	return id, nil
}
