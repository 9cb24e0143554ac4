// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// newTestStorages поднимает настоящую sqlite базу во временной директории.
func newTestStorages(t *testing.T) *ClientStorages {
	t.Helper()

	cfg := config.ClientStorage{DB: config.ClientDB{DSN: filepath.Join(t.TempDir(), "nested", "local.db")}}
	s, err := NewClientStorages(testContext(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &DB{DB: db, logger: logger.Nop()}, mock
}

func TestNewClientStorages_CreatesFileAndSchema(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "sub", "local.db")

	s, err := NewClientStorages(testContext(), config.ClientStorage{DB: config.ClientDB{DSN: dsn}}, logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, dsn)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	n, err := s.Queue.Count(testContext())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClientStorages_CloseNil(t *testing.T) {
	s := &ClientStorages{}
	assert.NoError(t, s.Close())
}

func TestDBFilePath(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{dsn: "local.db", want: "local.db"},
		{dsn: "file:data/local.db?_busy_timeout=5000", want: "data/local.db"},
		{dsn: ":memory:", want: ""},
		{dsn: "file::memory:?cache=shared", want: ""},
		{dsn: "file:test.db?mode=memory", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, dbFilePath(tt.dsn))
		})
	}
}

func TestMigrate_OnClosedDB(t *testing.T) {
	conn, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	db := &DB{DB: conn, logger: logger.Nop()}
	assert.Error(t, db.Migrate())
}
