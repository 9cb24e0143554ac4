package store

import (
	"errors"
	"regexp"
	"testing"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncStateRepository_SetGetDelete(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()

	_, err := s.State.Get(ctx, CursorKey("dev-1"))
	require.ErrorIs(t, err, ErrStateNotFound)

	require.NoError(t, s.State.Set(ctx, CursorKey("dev-1"), "c1"))
	require.NoError(t, s.State.Set(ctx, CursorKey("dev-1"), "c2"))
	require.NoError(t, s.State.Set(ctx, CursorKey("dev-2"), "other"))

	v, err := s.State.Get(ctx, CursorKey("dev-1"))
	require.NoError(t, err)
	assert.Equal(t, "c2", v)

	require.NoError(t, s.State.Delete(ctx, CursorKey("dev-1")))
	_, err = s.State.Get(ctx, CursorKey("dev-1"))
	require.ErrorIs(t, err, ErrStateNotFound)

	v, err = s.State.Get(ctx, CursorKey("dev-2"))
	require.NoError(t, err)
	assert.Equal(t, "other", v)
}

func TestCursorKey(t *testing.T) {
	assert.Equal(t, "cursor:abc", CursorKey("abc"))
}

func TestSyncStateRepository_Get_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncStateRepository(db, logger.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM sync_state")).
		WithArgs(StateKeyDeviceID).
		WillReturnError(errors.New("boom"))

	_, err := repo.Get(testContext(), StateKeyDeviceID)
	require.ErrorIs(t, err, ErrExecutingQuery)
}

func TestSyncStateRepository_Set_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncStateRepository(db, logger.Nop())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_state")).WillReturnError(errors.New("boom"))

	err := repo.Set(testContext(), StateKeyConsent, "true")
	require.ErrorIs(t, err, ErrExecutingStatement)
}
