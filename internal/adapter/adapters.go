package adapter

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/validators"
)

// Adapters bundles the remote-facing components of the client.
type Adapters struct {
	Sync       SyncTransport
	Operations OperationSender
	Health     HealthChecker
	Tokens     TokenIssuer

	closers []func() error
}

// NewAdapters builds the configured transport chain: the primary path
// (HTTP or gRPC) followed by the direct HTTP fallback path.
func NewAdapters(cfg config.ClientAdapter, app config.ClientApp, deviceID string, tokens TokenSource, log *logger.Logger) (*Adapters, error) {
	a := &Adapters{}

	direct, err := NewHTTPTransport(HTTPOptions{
		Name:     "direct",
		BaseURL:  cfg.DirectAddress,
		SyncPath: cfg.DirectSyncPath,
		Timeout:  cfg.RequestTimeout,
		HashKey:  app.HashKey,
		Tokens:   tokens,
	})
	if err != nil {
		return nil, err
	}

	var primary SyncTransport
	switch cfg.Protocol {
	case config.ProtocolGRPC:
		var closeConn func() error
		primary, closeConn, err = NewGRPCTransport(GRPCOptions{
			Name:    "grpc",
			Address: cfg.GRPCAddress,
			Timeout: cfg.RequestTimeout,
			Tokens:  tokens,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeConn)
	default:
		primary, err = NewHTTPTransport(HTTPOptions{
			Name:     "primary",
			BaseURL:  cfg.HTTPAddress,
			SyncPath: cfg.SyncPath,
			Timeout:  cfg.RequestTimeout,
			HashKey:  app.HashKey,
			Tokens:   tokens,
		})
		if err != nil {
			return nil, err
		}
	}

	a.Sync = NewFallbackTransport(validators.NewSyncValidator(), DefaultFallbackPolicy(), primary, direct)

	rest, err := NewRESTClient(OperationOptions{
		BaseURL:    cfg.DirectAddress,
		OpsPath:    cfg.OpsPath,
		HealthPath: cfg.HealthPath,
		Timeout:    cfg.RequestTimeout,
		HashKey:    app.HashKey,
		DeviceID:   deviceID,
		Tokens:     tokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating rest client: %w", err)
	}
	a.Operations = rest
	a.Health = rest
	a.Tokens = rest

	log.Info().Str("func", "adapter.NewAdapters").Str("protocol", cfg.Protocol).
		Str("direct", cfg.DirectAddress).Msg("sync adapters created")
	return a, nil
}

// Close releases transport connections.
func (a *Adapters) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
