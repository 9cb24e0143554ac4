package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/internal/workers"
)

type App struct {
	Services *service.ClientServices
	Auth     *capability.TokenAuth
	Consent  *capability.StoredConsent
	Network  *capability.ProbeNetwork
	Tokens   adapter.TokenIssuer
	DeviceID string

	storages *store.ClientStorages
	adapters *adapter.Adapters
	workers  *workers.Workers
	logger   *logger.Logger
}

var _ Client = (*App)(nil)

func NewApp(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	ctx = log.WithContext(ctx)

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	app, err := newApp(ctx, cfg, storages, log)
	if err != nil {
		storages.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.ClientConfig, storages *store.ClientStorages, log *logger.Logger) (*App, error) {
	deviceID, err := service.LoadDeviceID(ctx, storages.State, utils.NewUUIDGenerator())
	if err != nil {
		return nil, fmt.Errorf("load device id: %w", err)
	}
	log = log.WithDevice(deviceID)

	auth, err := capability.NewTokenAuth(ctx, storages.State)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	consent, err := capability.NewStoredConsent(ctx, storages.State, cfg.App.ConsentDefault)
	if err != nil {
		return nil, fmt.Errorf("load consent: %w", err)
	}

	adapters, err := adapter.NewAdapters(cfg.Adapter, cfg.App, deviceID, auth, log)
	if err != nil {
		return nil, fmt.Errorf("create adapters: %w", err)
	}

	network := capability.NewProbeNetwork(adapters.Health, cfg.Workers.ProbeInterval, cfg.Adapter.RequestTimeout, false)

	services, err := service.NewClientServices(ctx, cfg, storages, adapters, service.Capabilities{
		Auth:    auth,
		Consent: consent,
		Network: network,
	}, deviceID, log)
	if err != nil {
		adapters.Close()
		return nil, fmt.Errorf("create client services: %w", err)
	}

	log.Info().Str("func", "client.NewApp").
		Bool("authenticated", auth.IsAuthenticated()).Msg("client app created")

	return &App{
		Services: services,
		Auth:     auth,
		Consent:  consent,
		Network:  network,
		Tokens:   adapters.Tokens,
		DeviceID: deviceID,
		storages: storages,
		adapters: adapters,
		workers:  workers.NewWorkers(network, services.SyncJob),
		logger:   log,
	}, nil
}

// Context attaches the app logger to ctx.
func (a *App) Context(ctx context.Context) context.Context {
	return a.logger.WithContext(ctx)
}

// Probe checks reachability of the remote once and updates the network state.
func (a *App) Probe(ctx context.Context) bool {
	return a.Network.Probe(a.Context(ctx))
}

func (a *App) Run(ctx context.Context) error {
	ctx = a.Context(ctx)

	a.workers.Start(ctx)
	a.logger.Info().Msg("client workers started")

	<-ctx.Done()

	a.workers.Stop()
	a.logger.Info().Msg("client workers stopped")
	return nil
}

func (a *App) Close() error {
	return errors.Join(a.adapters.Close(), a.storages.Close())
}
