package service

import (
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/validators"
)

type Services struct {
	AuthService AuthService
	SyncService RemoteSyncService
}

func NewServices(cfg config.ServerConfig, storages *store.Storages, logger *logger.Logger) *Services {
	return &Services{
		AuthService: NewAuthService(cfg, logger),
		SyncService: NewRemoteSyncService(storages.Records, fieldmap.Default(), validators.NewSyncValidator(), logger),
	}
}
