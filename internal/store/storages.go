package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
)

// Storages groups the repositories of the development sync server.
type Storages struct {
	// Records holds the remote copy of every synced record.
	Records RemoteStore

	db *PostgresDB
}

// NewStorages keeps the remote records in PostgreSQL when cfg.DatabaseDSN is
// set, running pending migrations first, and in memory otherwise.
func NewStorages(ctx context.Context, cfg config.ServerConfig, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	if cfg.DatabaseDSN == "" {
		logger.Info().Str("func", "store.NewStorages").Msg("no database configured, remote records are kept in memory")
		return &Storages{Records: NewMemoryRemoteStore()}, nil
	}

	db, err := NewConnectPostgres(ctx, cfg.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{Records: NewPostgresRemoteStore(db, logger), db: db}, nil
}

// Close releases the database connection, if any.
func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
