package config

import (
	"time"

	"github.com/MKhiriev/repcue-sync/models"
)

// Protocols accepted by Adapter.Protocol.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// defaults returns the values used for every field left unset by all other
// sources.
func defaults() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			Version:       "dev",
			TokenIssuer:   "repcue-sync",
			TokenDuration: 24 * time.Hour,
		},
		Adapter: Adapter{
			Protocol:       ProtocolHTTP,
			SyncPath:       "/functions/v1/sync",
			DirectSyncPath: "/rest/v1/sync",
			OpsPath:        "/rest/v1/ops",
			HealthPath:     "/health",
			RequestTimeout: 15 * time.Second,
		},
		Workers: Workers{
			SyncInterval:       time.Minute,
			QueueDrainInterval: 10 * time.Second,
			ProbeInterval:      15 * time.Second,
		},
		Sync: Sync{
			HarvestBatchSize: 5,
			TableOrder:       append([]string(nil), models.DefaultTableOrder...),
		},
		Queue: Queue{
			MaxSize:    1000,
			MaxRetries: models.DefaultMaxRetries,
			BaseDelay:  time.Second,
			Multiplier: 2,
			Retention:  7 * 24 * time.Hour,
			DrainBatch: 10,
		},
		Server: Server{
			HTTPAddress:    "localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
	}
}
