// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/validators"
	"github.com/MKhiriev/repcue-sync/models"
)

// FallbackPolicy lists the error kinds that move a call to the next
// transport of the chain.
type FallbackPolicy map[ErrorKind]bool

// DefaultFallbackPolicy falls back only on infrastructure-level failures.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		KindEmptyBody:       true,
		KindAmbiguousStatus: true,
		KindNetwork:         true,
	}
}

// Allows reports whether err may be retried on the next transport.
func (p FallbackPolicy) Allows(err error) bool {
	return p[KindOf(err)]
}

type fallbackTransport struct {
	chain     []SyncTransport
	policy    FallbackPolicy
	validator validators.Validator
}

// NewFallbackTransport validates every request before the first network call
// and then tries primary. When the failure kind is allowed by policy the
// identical payload is sent to the next transport in fallbacks; each
// transport is tried at most once. A nil policy means
// [DefaultFallbackPolicy].
func NewFallbackTransport(v validators.Validator, policy FallbackPolicy, primary SyncTransport, fallbacks ...SyncTransport) SyncTransport {
	if policy == nil {
		policy = DefaultFallbackPolicy()
	}
	return &fallbackTransport{
		chain:     append([]SyncTransport{primary}, fallbacks...),
		policy:    policy,
		validator: v,
	}
}

func (t *fallbackTransport) CallSync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	if err := t.validator.Validate(ctx, req); err != nil {
		log.Err(err).Str("func", "fallbackTransport.CallSync").Msg("sync request rejected before sending")
		return models.SyncResponse{}, newTransportError("local", KindValidation, err)
	}

	var lastErr error
	for i, transport := range t.chain {
		resp, err := transport.CallSync(ctx, req)
		if err == nil {
			if vErr := t.validator.Validate(ctx, resp); vErr != nil {
				return models.SyncResponse{}, newTransportError("local", KindDecode, vErr)
			}
			if i > 0 {
				log.Info().Str("func", "fallbackTransport.CallSync").Int("attempt", i+1).
					Msg("sync succeeded on fallback transport")
			}
			return resp, nil
		}

		if lastErr != nil {
			err = fmt.Errorf("%w (previous: %v)", err, lastErr)
		}
		lastErr = err

		if !t.policy.Allows(err) || ctx.Err() != nil {
			return models.SyncResponse{}, err
		}
		if i+1 < len(t.chain) {
			log.Warn().Err(err).Str("func", "fallbackTransport.CallSync").
				Str("kind", string(KindOf(err))).Msg("primary path failed, retrying on fallback transport")
		}
	}

	return models.SyncResponse{}, lastErr
}
