package service

import (
	"context"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/internal/validators"
	"github.com/MKhiriev/repcue-sync/models"
)

// Capabilities are the collaborator signals consumed by the sync engine.
type Capabilities struct {
	Auth    capability.Auth
	Consent capability.Consent
	Network capability.Network
}

type ClientServices struct {
	Records      ClientRecordService
	Harvester    DirtyHarvester
	Applier      ChangeApplier
	Cursors      CursorManager
	Queue        RetryQueue
	Dispatcher   OperationDispatcher
	Orchestrator SyncOrchestrator
	SyncJob      ClientSyncJob
}

func NewClientServices(
	ctx context.Context,
	cfg *config.ClientConfig,
	storages *store.ClientStorages,
	adapters *adapter.Adapters,
	caps Capabilities,
	deviceID string,
	logger *logger.Logger,
) (*ClientServices, error) {
	mapper := fieldmap.Default()
	validator := validators.NewSyncValidator()
	ids := utils.NewUUIDGenerator()

	tables := cfg.Sync.TableOrder
	if len(tables) == 0 {
		tables = models.DefaultTableOrder
	}

	harvester := NewDirtyHarvester(storages.Records, mapper, cfg.Sync, logger)
	applier := NewChangeApplier(storages.Records, mapper, NewConflictResolver(), logger)
	cursors := NewCursorManager(storages.State, deviceID)
	queue := NewRetryQueue(storages.Queue, validator, ids, cfg.Queue, logger)

	orchestrator, err := NewSyncOrchestrator(ctx, OrchestratorDeps{
		Records:    storages.Records,
		State:      storages.State,
		Harvester:  harvester,
		Applier:    applier,
		Cursors:    cursors,
		Queue:      queue,
		Transport:  adapters.Sync,
		Auth:       caps.Auth,
		Consent:    caps.Consent,
		Network:    caps.Network,
		ClientInfo: models.ClientInfo{AppVersion: cfg.App.Version, DeviceID: deviceID},
		Tables:     tables,
	})
	if err != nil {
		return nil, err
	}

	return &ClientServices{
		Records:      NewClientRecordService(storages.Records, caps.Auth, validator, ids, tables, logger),
		Harvester:    harvester,
		Applier:      applier,
		Cursors:      cursors,
		Queue:        queue,
		Dispatcher:   NewOperationDispatcher(adapters.Operations, queue, caps.Network),
		Orchestrator: orchestrator,
		SyncJob:      NewClientSyncJob(orchestrator, queue, adapters.Operations, caps.Network, caps.Auth, cfg.Workers, cfg.Queue.DrainBatch),
	}, nil
}
