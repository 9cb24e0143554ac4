// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// sync client and the development sync server. It is populated by merging
// values from a .env file, environment variables, command-line flags and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: version, integrity key, token
	// parameters and the consent default.
	App App `envPrefix:"APP_"`

	// Adapter holds the addresses and paths of the remote sync endpoint.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds the local database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Workers holds the intervals of the background jobs.
	Workers Workers `envPrefix:"WORKERS_"`

	// Sync holds the tuning knobs of a sync pass.
	Sync Sync `envPrefix:"SYNC_"`

	// Queue holds the retry queue limits and backoff parameters.
	Queue Queue `envPrefix:"QUEUE_"`

	// Server holds network address and timeout settings of the development
	// sync server.
	Server Server `envPrefix:"SERVER_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`

	// DotEnvPath is the optional .env file loaded before the environment is
	// parsed. Env: DOTENV
	DotEnvPath string `env:"DOTENV"`
}

// App holds application-level configuration values.
type App struct {
	// Version is the semantic version reported in every sync request.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// HashKey is the HMAC key of the HashSHA256 integrity header. Empty
	// disables signing.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// TokenSignKey is the secret the development server verifies access
	// tokens with.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the expected "iss" claim of access tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the lifetime of tokens minted by the development
	// server.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// ConsentDefault is the sync consent assumed before the user answered.
	// Env: APP_CONSENT_DEFAULT
	ConsentDefault bool `env:"CONSENT_DEFAULT"`

	// LogFile is the rotating client log file; empty logs to stdout.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Adapter holds the remote sync endpoint settings.
type Adapter struct {
	// Protocol selects the primary transport: "http" or "grpc".
	// Env: ADAPTER_PROTOCOL
	Protocol string `env:"PROTOCOL"`

	// HTTPAddress is the base address of the primary HTTP sync path.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// DirectAddress is the base address of the direct fallback path.
	// Defaults to HTTPAddress.
	// Env: ADAPTER_DIRECT_ADDRESS
	DirectAddress string `env:"DIRECT_ADDRESS"`

	// GRPCAddress is the address of the gRPC sync endpoint.
	// Env: ADAPTER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// SyncPath is the primary sync path.
	// Env: ADAPTER_SYNC_PATH
	SyncPath string `env:"SYNC_PATH"`

	// DirectSyncPath is the path of the direct fallback sync endpoint.
	// Env: ADAPTER_DIRECT_SYNC_PATH
	DirectSyncPath string `env:"DIRECT_SYNC_PATH"`

	// OpsPath is the prefix of the retry queue operation endpoints.
	// Env: ADAPTER_OPS_PATH
	OpsPath string `env:"OPS_PATH"`

	// HealthPath is probed by the network monitor.
	// Env: ADAPTER_HEALTH_PATH
	HealthPath string `env:"HEALTH_PATH"`

	// RequestTimeout bounds a single outbound request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration for the storage backends.
type Storage struct {
	// DB holds the local database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path or file: URI.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SyncInterval is the period of the background sync pass.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// QueueDrainInterval is the period of the retry queue drain loop.
	// Env: WORKERS_QUEUE_DRAIN_INTERVAL
	QueueDrainInterval time.Duration `env:"QUEUE_DRAIN_INTERVAL"`

	// ProbeInterval is the period of the network health probe.
	// Env: WORKERS_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`
}

// Sync holds the tuning knobs of a sync pass.
type Sync struct {
	// HarvestBatchSize is the maximum number of dirty records harvested per
	// table per pass.
	// Env: SYNC_HARVEST_BATCH_SIZE
	HarvestBatchSize int `env:"HARVEST_BATCH_SIZE"`

	// TableOrder is the declared processing order of the syncable tables.
	// Env: SYNC_TABLE_ORDER (comma separated)
	TableOrder []string `env:"TABLE_ORDER" envSeparator:","`
}

// Queue holds the retry queue limits and backoff parameters.
type Queue struct {
	// MaxSize caps the number of queued operations. Env: QUEUE_MAX_SIZE
	MaxSize int `env:"MAX_SIZE"`
	// MaxRetries is the default retry limit. Env: QUEUE_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`
	// BaseDelay is the first backoff delay. Env: QUEUE_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`
	// Multiplier grows the delay per failure. Env: QUEUE_MULTIPLIER
	Multiplier float64 `env:"MULTIPLIER"`
	// Retention is the maximum age of a queued operation. Env: QUEUE_RETENTION
	Retention time.Duration `env:"RETENTION"`
	// DrainBatch is the number of operations sent per drain. Env: QUEUE_DRAIN_BATCH
	DrainBatch int `env:"DRAIN_BATCH"`
}

// Server holds network and timeout settings for the development sync server.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// GRPCAddress is the TCP address on which the gRPC server listens,
	// in "host:port" format (e.g. "0.0.0.0:9090").
	// Env: SERVER_GRPC_ADDRESS
	GRPCAddress string `env:"GRPC_ADDRESS"`

	// RequestTimeout is the maximum duration allowed for a single inbound
	// request before the server cancels it (e.g. "30s", "1m").
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// DatabaseDSN selects the PostgreSQL store of the remote records. Empty
	// keeps them in memory.
	// Env: SERVER_DATABASE_DSN
	DatabaseDSN string `env:"DATABASE_DSN"`
}

// GetStructuredConfig loads, merges and validates the configuration from all
// available sources. For every field the first non-zero value wins, in this
// priority order:
//  1. Command-line flags (nil flags skips the source)
//  2. Environment variables, after the optional .env file is loaded
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
func GetStructuredConfig(flags *Flags) (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags(flags).
		withDotEnv().
		withEnv().
		withJSON().
		withDefaults().
		build()
}
