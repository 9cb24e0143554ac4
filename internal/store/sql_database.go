package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/migrations"
)

// DB is the on-device sqlite handle shared by the record, queue and sync
// state repositories.
type DB struct {
	*sql.DB
	logger *logger.Logger
}

// Migrate brings the local schema up to the latest embedded version.
func (db *DB) Migrate() error {
	if err := migrations.Migrate(db.DB); err != nil {
		db.logger.Err(err).Str("func", "DB.Migrate").Msg("local schema migration failed")
		return err
	}
	return nil
}

// inTx runs fn in one transaction. The transaction is rolled back when fn
// fails, otherwise committed.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}
