package capability

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/MKhiriev/repcue-sync/internal/store"
)

// StoredConsent persists the cloud sync consent in the sync state store.
type StoredConsent struct {
	state   store.SyncStateRepository
	granted atomic.Bool
}

// NewStoredConsent loads the stored decision, or uses def when the user has
// not answered yet.
func NewStoredConsent(ctx context.Context, state store.SyncStateRepository, def bool) (*StoredConsent, error) {
	c := &StoredConsent{state: state}
	c.granted.Store(def)

	raw, err := state.Get(ctx, store.StateKeyConsent)
	if errors.Is(err, store.ErrStateNotFound) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading consent: %w", err)
	}

	granted, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing consent %q: %w", raw, err)
	}
	c.granted.Store(granted)
	return c, nil
}

func (c *StoredConsent) HasConsent() bool {
	return c.granted.Load()
}

// Set records the user's decision.
func (c *StoredConsent) Set(ctx context.Context, granted bool) error {
	if err := c.state.Set(ctx, store.StateKeyConsent, strconv.FormatBool(granted)); err != nil {
		return fmt.Errorf("error saving consent: %w", err)
	}
	c.granted.Store(granted)
	return nil
}
