package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side application settings derived from the shared
// structured config.
type ClientApp struct {
	// Version is reported as clientInfo.appVersion.
	Version string
	// HashKey is the HMAC key used by the client for payload integrity checks.
	HashKey string
	// ConsentDefault applies until the user records a consent decision.
	ConsentDefault bool
	// LogFile is the rotating log file; empty logs to stdout.
	LogFile string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// Protocol selects the primary transport ("http" or "grpc").
	Protocol string
	// HTTPAddress is the base address of the primary HTTP path.
	HTTPAddress string
	// DirectAddress is the base address of the direct fallback path.
	DirectAddress string
	// GRPCAddress is the gRPC endpoint address used by the client.
	GRPCAddress string
	// SyncPath and DirectSyncPath are the primary and fallback sync paths.
	SyncPath       string
	DirectSyncPath string
	// OpsPath prefixes retry queue operation endpoints.
	OpsPath string
	// HealthPath is probed by the network monitor.
	HealthPath string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the SQLite connection string used by the client.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientWorkers contains client background worker settings.
type ClientWorkers struct {
	// SyncInterval defines how often the background sync pass runs.
	SyncInterval time.Duration
	// QueueDrainInterval defines how often the retry queue is drained.
	QueueDrainInterval time.Duration
	// ProbeInterval defines how often network reachability is probed.
	ProbeInterval time.Duration
}

// ClientSync holds sync pass tuning.
type ClientSync struct {
	BatchSize  int
	TableOrder []string
}

// ClientQueue holds retry queue settings.
type ClientQueue struct {
	MaxSize    int
	MaxRetries int
	BaseDelay  time.Duration
	Multiplier float64
	Retention  time.Duration
	DrainBatch int
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	// App contains application-level client settings.
	App ClientApp
	// Adapter contains client transport addresses and timeouts.
	Adapter ClientAdapter
	// Storage contains client storage settings.
	Storage ClientStorage
	// Workers contains background job settings.
	Workers ClientWorkers
	// Sync contains sync pass settings.
	Sync ClientSync
	// Queue contains retry queue settings.
	Queue ClientQueue
}

// GetClientConfig builds and validates a client-specific config view from the
// merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the fields
// relevant to the client runtime, and validates the resulting [ClientConfig].
func GetClientConfig(flags *Flags) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig maps a merged structured config to the client view.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	direct := cfg.Adapter.DirectAddress
	if direct == "" {
		direct = cfg.Adapter.HTTPAddress
	}

	return &ClientConfig{
		App: ClientApp{
			Version:        cfg.App.Version,
			HashKey:        cfg.App.HashKey,
			ConsentDefault: cfg.App.ConsentDefault,
			LogFile:        cfg.App.LogFile,
		},
		Adapter: ClientAdapter{
			Protocol:       cfg.Adapter.Protocol,
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			DirectAddress:  direct,
			GRPCAddress:    cfg.Adapter.GRPCAddress,
			SyncPath:       cfg.Adapter.SyncPath,
			DirectSyncPath: cfg.Adapter.DirectSyncPath,
			OpsPath:        cfg.Adapter.OpsPath,
			HealthPath:     cfg.Adapter.HealthPath,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:       cfg.Workers.SyncInterval,
			QueueDrainInterval: cfg.Workers.QueueDrainInterval,
			ProbeInterval:      cfg.Workers.ProbeInterval,
		},
		Sync: ClientSync{
			BatchSize:  cfg.Sync.HarvestBatchSize,
			TableOrder: cfg.Sync.TableOrder,
		},
		Queue: ClientQueue{
			MaxSize:    cfg.Queue.MaxSize,
			MaxRetries: cfg.Queue.MaxRetries,
			BaseDelay:  cfg.Queue.BaseDelay,
			Multiplier: cfg.Queue.Multiplier,
			Retention:  cfg.Queue.Retention,
			DrainBatch: cfg.Queue.DrainBatch,
		},
	}
}
