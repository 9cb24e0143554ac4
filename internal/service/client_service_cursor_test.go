package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/repcue-sync/internal/mock"
	"github.com/MKhiriev/repcue-sync/internal/store"
)

func TestCursorManager_LoadSaveClear(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()
	c := NewCursorManager(s.State, "dev-1")

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "курсора ещё нет")

	require.NoError(t, c.Save(ctx, "42"))
	got, err = c.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "42", *got)

	require.NoError(t, c.Clear(ctx))
	got, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCursorManager_KeyedByDevice(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()

	require.NoError(t, NewCursorManager(s.State, "dev-1").Save(ctx, "7"))

	got, err := NewCursorManager(s.State, "dev-2").Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCursorManager_SaveRejectsEmpty(t *testing.T) {
	s := newTestStorages(t)
	err := NewCursorManager(s.State, "dev-1").Save(testContext(), "")
	assert.ErrorIs(t, err, ErrEmptyCursor)
}

func TestCursorManager_LoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	state := mock.NewMockSyncStateRepository(ctrl)
	boom := errors.New("boom")
	state.EXPECT().Get(gomock.Any(), store.CursorKey("dev-1")).Return("", boom)

	_, err := NewCursorManager(state, "dev-1").Load(testContext())
	assert.ErrorIs(t, err, boom)
}

func TestLoadDeviceID_StableAcrossCalls(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()
	ids := &seqIDs{pref: "device-"}

	first, err := LoadDeviceID(ctx, s.State, ids)
	require.NoError(t, err)
	assert.Equal(t, "device-a", first)

	second, err := LoadDeviceID(ctx, s.State, ids)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
