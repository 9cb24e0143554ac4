package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/utils"
)

// TokenAuth keeps the access token in the sync state store. The owner id is
// the "sub" claim of the token.
type TokenAuth struct {
	state   store.SyncStateRepository
	mu      sync.RWMutex
	token   string
	owner   string
	changes *Broadcaster[AuthState]
}

// NewTokenAuth restores a previously persisted token. A stored token that no
// longer parses is discarded.
func NewTokenAuth(ctx context.Context, state store.SyncStateRepository) (*TokenAuth, error) {
	log := logger.FromContext(ctx)
	a := &TokenAuth{state: state, changes: NewBroadcaster[AuthState]()}

	token, err := state.Get(ctx, store.StateKeyAccessToken)
	if errors.Is(err, store.ErrStateNotFound) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading access token: %w", err)
	}

	owner, err := utils.ParseSubjectUnverified(token)
	if err != nil {
		log.Err(err).Str("func", "capability.NewTokenAuth").Msg("discarding unparsable stored token")
		if err = state.Delete(ctx, store.StateKeyAccessToken); err != nil {
			return nil, fmt.Errorf("error deleting access token: %w", err)
		}
		return a, nil
	}

	a.token, a.owner = token, owner
	return a, nil
}

// Login stores token and publishes the new state.
func (a *TokenAuth) Login(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	owner, err := utils.ParseSubjectUnverified(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if err = a.state.Set(ctx, store.StateKeyAccessToken, token); err != nil {
		return fmt.Errorf("error saving access token: %w", err)
	}

	a.mu.Lock()
	a.token, a.owner = token, owner
	a.mu.Unlock()

	a.changes.Publish(AuthState{Authenticated: true, OwnerID: owner})
	return nil
}

// Logout forgets the token. Records keep their owner.
func (a *TokenAuth) Logout(ctx context.Context) error {
	if err := a.state.Delete(ctx, store.StateKeyAccessToken); err != nil {
		return fmt.Errorf("error deleting access token: %w", err)
	}

	a.mu.Lock()
	a.token, a.owner = "", ""
	a.mu.Unlock()

	a.changes.Publish(AuthState{})
	return nil
}

func (a *TokenAuth) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token != ""
}

func (a *TokenAuth) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *TokenAuth) OwnerID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner
}

func (a *TokenAuth) Subscribe() (<-chan AuthState, func()) {
	return a.changes.Subscribe()
}
