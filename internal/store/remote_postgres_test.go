package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/models"
)

func newTestPostgresStore(t *testing.T) (RemoteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresRemoteStore(newPostgresDB(db, logger.Nop()), logger.Nop()), mock
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func expectLock(mock sqlmock.Sqlmock, seq int64) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRemoteCounter)).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(seq))
}

func remoteRows() *sqlmock.Rows {
	return sqlmock.NewRows(remoteColumns)
}

func TestPostgresRemoteStore_PutAssignsNextSeq(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	e := remoteEntry("user-1", models.TableExercises, "a")
	wire, _ := json.Marshal(e.Wire)

	expectLock(mock, 4)
	mock.ExpectQuery(regexp.QuoteMeta(nextRemoteSeq)).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(5))
	mock.ExpectExec("INSERT INTO remote_records").
		WithArgs("user-1", models.TableExercises, "a", e.Meta.CreatedAt, e.Meta.UpdatedAt,
			false, int64(1), wire, int64(5), "phone").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Tx(testContext(), func(ctx context.Context, tx RemoteTx) error {
		cursor, _ := tx.Cursor(ctx)
		assert.Equal(t, int64(4), cursor)

		put, err := tx.Put(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, int64(5), put.Seq)

		cursor, _ = tx.Cursor(ctx)
		assert.Equal(t, int64(5), cursor)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_Get(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	expectLock(mock, 1)
	mock.ExpectQuery("SELECT (.+) FROM remote_records WHERE").
		WillReturnRows(remoteRows().AddRow("user-1", models.TableExercises, "a", at, at,
			false, int64(2), []byte(`{"id":"a","name":"Squat"}`), int64(1), "phone"))
	mock.ExpectQuery("SELECT (.+) FROM remote_records WHERE").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := s.Tx(testContext(), func(ctx context.Context, tx RemoteTx) error {
		e, err := tx.Get(ctx, "user-1", models.TableExercises, "a")
		require.NoError(t, err)
		assert.Equal(t, int64(2), e.Meta.Version)
		require.NotNil(t, e.Meta.OwnerID)
		assert.Equal(t, "user-1", *e.Meta.OwnerID)
		assert.Equal(t, "Squat", e.Wire["name"])
		assert.Equal(t, models.Clean, e.Meta.Dirty)

		_, err = tx.Get(ctx, "user-1", models.TableExercises, "missing")
		assert.ErrorIs(t, err, ErrRemoteEntryNotFound)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_ChangesSince(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	expectLock(mock, 3)
	mock.ExpectQuery("SELECT (.+) FROM remote_records WHERE owner_id = \\$1 AND seq > \\$2 ORDER BY table_name, id").
		WithArgs("user-1", int64(1)).
		WillReturnRows(remoteRows().
			AddRow("user-1", models.TableExercises, "a", at, at, false, int64(1), []byte(`{"id":"a"}`), int64(2), "phone").
			AddRow("user-1", models.TableWorkouts, "w", at, at, true, int64(2), []byte(`{"id":"w"}`), int64(3), ""))
	mock.ExpectCommit()

	err := s.Tx(testContext(), func(ctx context.Context, tx RemoteTx) error {
		changes, err := tx.ChangesSince(ctx, "user-1", 1)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, "a", changes[0].Meta.ID)
		assert.True(t, changes[1].Meta.Deleted)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_ChangesSince_BadWire(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	at := time.Now()

	expectLock(mock, 1)
	mock.ExpectQuery("SELECT (.+) FROM remote_records").
		WillReturnRows(remoteRows().AddRow("user-1", models.TableExercises, "a", at, at, false, int64(1), []byte(`{`), int64(1), ""))
	mock.ExpectRollback()

	err := s.Tx(testContext(), func(ctx context.Context, tx RemoteTx) error {
		_, err := tx.ChangesSince(ctx, "user-1", 0)
		return err
	})
	assert.ErrorIs(t, err, ErrDecodingColumn)
}

func TestPostgresRemoteStore_MarkApplied(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	expectLock(mock, 0)
	mock.ExpectExec(regexp.QuoteMeta(markOperationApplied)).WithArgs("op-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(markOperationApplied)).WithArgs("op-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.Tx(testContext(), func(ctx context.Context, tx RemoteTx) error {
		fresh, err := tx.MarkApplied(ctx, "op-1")
		require.NoError(t, err)
		assert.True(t, fresh)

		fresh, err = tx.MarkApplied(ctx, "op-1")
		require.NoError(t, err)
		assert.False(t, fresh)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_FnErrorRollsBack(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	boom := errors.New("boom")

	expectLock(mock, 0)
	mock.ExpectRollback()

	err := s.Tx(testContext(), func(context.Context, RemoteTx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_RetriesSerializationFailure(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	// первая попытка падает на конфликте сериализации, вторая проходит
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRemoteCounter)).WillReturnError(pgError(pgerrcode.SerializationFailure))
	mock.ExpectRollback()
	expectLock(mock, 0)
	mock.ExpectCommit()

	calls := 0
	err := s.Tx(testContext(), func(context.Context, RemoteTx) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_GivesUpAfterMaxAttempts(t *testing.T) {
	s, mock := newTestPostgresStore(t)

	for range maxTxAttempts {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(lockRemoteCounter)).WillReturnError(pgError(pgerrcode.DeadlockDetected))
		mock.ExpectRollback()
	}

	err := s.Tx(testContext(), func(context.Context, RemoteTx) error { return nil })
	assert.ErrorIs(t, err, ErrExecutingQuery)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRemoteStore_BeginError(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	mock.ExpectBegin().WillReturnError(pgError(pgerrcode.UndefinedTable))

	err := s.Tx(testContext(), func(context.Context, RemoteTx) error { return nil })
	assert.ErrorIs(t, err, ErrBeginningTransaction)
}
