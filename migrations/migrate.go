// Package migrations embeds the goose SQL migrations of the local sqlite
// schema (records, sync state, retry queue) and of the PostgreSQL schema of
// the development remote store.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedMigrations embed.FS

//go:embed remote/*.sql
var remoteMigrations embed.FS

// Goose dialects of the local and the remote store.
const (
	Dialect       = "sqlite3"
	RemoteDialect = "postgres"
)

var errNilDB = errors.New("db is nil")

// Migrate applies all pending migrations to db.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", errNilDB)
	}

	return up(db, embedMigrations, Dialect, ".")
}

// MigrateRemote applies the remote store migrations to a PostgreSQL db.
func MigrateRemote(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", errNilDB)
	}

	return up(db, remoteMigrations, RemoteDialect, "remote")
}

func up(db *sql.DB, fsys embed.FS, dialect, dir string) error {
	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
