// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks the merged [StructuredConfig] for values that are invalid
// regardless of the binary using it.
func (cfg *StructuredConfig) validate() error {
	if cfg.Sync.HarvestBatchSize < 0 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Queue.MaxSize < 0 || cfg.Queue.MaxRetries < 0 || cfg.Queue.DrainBatch < 0 {
		return ErrInvalidQueueConfigs
	}
	if cfg.Queue.Multiplier != 0 && cfg.Queue.Multiplier < 1 {
		return ErrInvalidQueueConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	switch cfg.Adapter.Protocol {
	case ProtocolHTTP:
	case ProtocolGRPC:
		if cfg.Adapter.GRPCAddress == "" {
			return ErrInvalidAdapterConfigs
		}
	default:
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.QueueDrainInterval <= 0 || cfg.Workers.ProbeInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if cfg.Sync.BatchSize <= 0 || len(cfg.Sync.TableOrder) == 0 {
		return ErrInvalidSyncConfigs
	}

	if cfg.Queue.MaxSize <= 0 || cfg.Queue.MaxRetries <= 0 || cfg.Queue.BaseDelay <= 0 || cfg.Queue.Multiplier < 1 {
		return ErrInvalidQueueConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" && cfg.GRPCAddress == "" {
		return ErrInvalidServerConfigs
	}
	if cfg.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}
	return nil
}
