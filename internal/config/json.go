package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with snake_case keys and
// string durations.
type StructuredJSONConfig struct {
	App struct {
		Version        string   `json:"version"`
		HashKey        string   `json:"hash_key"`
		TokenSignKey   string   `json:"token_sign_key"`
		TokenIssuer    string   `json:"token_issuer"`
		TokenDuration  Duration `json:"token_duration"`
		ConsentDefault bool     `json:"consent_default"`
		LogFile        string   `json:"log_file"`
	} `json:"app,omitempty"`

	Adapter struct {
		Protocol       string   `json:"protocol"`
		HTTPAddress    string   `json:"http_address"`
		DirectAddress  string   `json:"direct_address"`
		GRPCAddress    string   `json:"grpc_address"`
		SyncPath       string   `json:"sync_path"`
		DirectSyncPath string   `json:"direct_sync_path"`
		OpsPath        string   `json:"ops_path"`
		HealthPath     string   `json:"health_path"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Workers struct {
		SyncInterval       Duration `json:"sync_interval"`
		QueueDrainInterval Duration `json:"queue_drain_interval"`
		ProbeInterval      Duration `json:"probe_interval"`
	} `json:"workers,omitempty"`

	Sync struct {
		HarvestBatchSize int      `json:"harvest_batch_size"`
		TableOrder       []string `json:"table_order"`
	} `json:"sync,omitempty"`

	Queue struct {
		MaxSize    int      `json:"max_size"`
		MaxRetries int      `json:"max_retries"`
		BaseDelay  Duration `json:"base_delay"`
		Multiplier float64  `json:"multiplier"`
		Retention  Duration `json:"retention"`
		DrainBatch int      `json:"drain_batch"`
	} `json:"queue,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		GRPCAddress    string   `json:"grpc_address"`
		RequestTimeout Duration `json:"request_timeout"`
		DatabaseDSN    string   `json:"database_dsn"`
	} `json:"server,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			Version:        j.App.Version,
			HashKey:        j.App.HashKey,
			TokenSignKey:   j.App.TokenSignKey,
			TokenIssuer:    j.App.TokenIssuer,
			TokenDuration:  time.Duration(j.App.TokenDuration),
			ConsentDefault: j.App.ConsentDefault,
			LogFile:        j.App.LogFile,
		},
		Adapter: Adapter{
			Protocol:       j.Adapter.Protocol,
			HTTPAddress:    j.Adapter.HTTPAddress,
			DirectAddress:  j.Adapter.DirectAddress,
			GRPCAddress:    j.Adapter.GRPCAddress,
			SyncPath:       j.Adapter.SyncPath,
			DirectSyncPath: j.Adapter.DirectSyncPath,
			OpsPath:        j.Adapter.OpsPath,
			HealthPath:     j.Adapter.HealthPath,
			RequestTimeout: time.Duration(j.Adapter.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{DSN: j.Storage.DB.DSN},
		},
		Workers: Workers{
			SyncInterval:       time.Duration(j.Workers.SyncInterval),
			QueueDrainInterval: time.Duration(j.Workers.QueueDrainInterval),
			ProbeInterval:      time.Duration(j.Workers.ProbeInterval),
		},
		Sync: Sync{
			HarvestBatchSize: j.Sync.HarvestBatchSize,
			TableOrder:       j.Sync.TableOrder,
		},
		Queue: Queue{
			MaxSize:    j.Queue.MaxSize,
			MaxRetries: j.Queue.MaxRetries,
			BaseDelay:  time.Duration(j.Queue.BaseDelay),
			Multiplier: j.Queue.Multiplier,
			Retention:  time.Duration(j.Queue.Retention),
			DrainBatch: j.Queue.DrainBatch,
		},
		Server: Server{
			HTTPAddress:    j.Server.HTTPAddress,
			GRPCAddress:    j.Server.GRPCAddress,
			RequestTimeout: time.Duration(j.Server.RequestTimeout),
			DatabaseDSN:    j.Server.DatabaseDSN,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
