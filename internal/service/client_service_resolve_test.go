// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/mock"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/models"
)

// ── Resolve ──────────────────────────────────────────────────────────────────

func TestConflictResolver_Resolve(t *testing.T) {
	r := NewConflictResolver()

	tests := []struct {
		name         string
		local        models.Record
		remote       models.Record
		wantRemote   bool
		wantConflict bool
	}{
		{
			name:       "clean local always loses",
			local:      cleanRecord(models.TableExercises, "a", 3, t2, nil),
			remote:     cleanRecord(models.TableExercises, "a", 1, t0, nil),
			wantRemote: true,
		},
		{
			name:         "dirty local newer wins",
			local:        dirtyRecord(models.TableExercises, "a", 2, t1, nil),
			remote:       cleanRecord(models.TableExercises, "a", 2, t0, nil),
			wantConflict: true,
		},
		{
			name:         "remote newer wins",
			local:        dirtyRecord(models.TableExercises, "a", 2, t0, nil),
			remote:       cleanRecord(models.TableExercises, "a", 2, t1, nil),
			wantRemote:   true,
			wantConflict: true,
		},
		{
			name:         "tie without deletion goes to remote",
			local:        dirtyRecord(models.TableExercises, "a", 2, t1, nil),
			remote:       cleanRecord(models.TableExercises, "a", 2, t1, nil),
			wantRemote:   true,
			wantConflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.local, tt.remote)
			assert.Equal(t, tt.wantRemote, got.RemoteWins)
			assert.Equal(t, tt.wantConflict, got.Conflict)
		})
	}
}

func TestConflictResolver_TieDeletedVariantWinsRegardlessOfOrder(t *testing.T) {
	r := NewConflictResolver()

	alive := dirtyRecord(models.TableExercises, "a", 2, t1, nil)
	dead := dirtyRecord(models.TableExercises, "a", 2, t1, nil)
	dead.Deleted = true
	dead.Op = models.OpDelete

	// порядок аргументов не влияет на результат
	assert.True(t, r.Resolve(alive, dead).Winner.Deleted)
	assert.True(t, r.Resolve(dead, alive).Winner.Deleted)
}

// ── Apply ────────────────────────────────────────────────────────────────────

func newTestApplier(t *testing.T) (*changeApplier, *store.ClientStorages) {
	s := newTestStorages(t)
	a := NewChangeApplier(s.Records, fieldmap.Default(), NewConflictResolver(), logger.Nop()).(*changeApplier)
	a.now = func() time.Time { return t2 }
	return a, s
}

func wireOf(t *testing.T, r models.Record) models.WireRecord {
	t.Helper()
	w, err := fieldmap.Default().ToWire(r)
	require.NoError(t, err)
	return w
}

func TestChangeApplier_InsertsUnknownRecordClean(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	remote := cleanRecord(models.TableExercises, "ex-1", 4, t1, map[string]any{"name": "Squat", "muscleGroup": "legs"})
	res := a.Apply(ctx, models.TableExercises, models.TableChanges{Upserts: []models.WireRecord{wireOf(t, remote)}})

	assert.Equal(t, 1, res.Pulled)
	assert.Zero(t, res.Conflicts)
	assert.Empty(t, res.Errors)

	got, err := s.Records.Get(ctx, models.TableExercises, "ex-1")
	require.NoError(t, err)
	assert.False(t, got.IsDirty())
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, "legs", got.Fields["muscleGroup"])
	require.NotNil(t, got.SyncedAt)
	assert.True(t, got.SyncedAt.Equal(t2))
}

func TestChangeApplier_RemoteReplacesCleanLocal(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	owner := "user-1"
	local := cleanRecord(models.TableExercises, "ex-1", 5, t1, map[string]any{"name": "Old"})
	local.OwnerID = &owner
	require.NoError(t, s.Records.Save(ctx, local))

	// удалённая версия ниже и без владельца
	remote := cleanRecord(models.TableExercises, "ex-1", 3, t2, map[string]any{"name": "New"})
	res := a.Apply(ctx, models.TableExercises, models.TableChanges{Upserts: []models.WireRecord{wireOf(t, remote)}})
	assert.Equal(t, 1, res.Pulled)
	assert.Zero(t, res.Conflicts)

	got, err := s.Records.Get(ctx, models.TableExercises, "ex-1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Fields["name"])
	assert.Equal(t, int64(5), got.Version, "версия не должна уменьшаться")
	require.NotNil(t, got.OwnerID)
	assert.Equal(t, "user-1", *got.OwnerID)
}

func TestChangeApplier_DirtyLocalNewerWins(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	local := dirtyRecord(models.TableExercises, "a", 1, t1, map[string]any{"name": "Local"})
	require.NoError(t, s.Records.Save(ctx, local))

	remote := cleanRecord(models.TableExercises, "a", 1, t0, map[string]any{"name": "Remote"})
	res := a.Apply(ctx, models.TableExercises, models.TableChanges{Upserts: []models.WireRecord{wireOf(t, remote)}})

	assert.Zero(t, res.Pulled)
	assert.Equal(t, 1, res.Conflicts)

	got, err := s.Records.Get(ctx, models.TableExercises, "a")
	require.NoError(t, err)
	assert.Equal(t, "Local", got.Fields["name"])
	assert.True(t, got.IsDirty())
}

func TestChangeApplier_RemoteDeleteTombstones(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	require.NoError(t, s.Records.Save(ctx, cleanRecord(models.TableWorkouts, "w-1", 2, t0, map[string]any{"name": "Push"})))

	res := a.Apply(ctx, models.TableWorkouts, models.TableChanges{Deletes: []string{"w-1", "missing"}})
	assert.Equal(t, 1, res.Pulled)
	assert.Empty(t, res.Errors)

	got, err := s.Records.Get(ctx, models.TableWorkouts, "w-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, models.OpDelete, got.Op)
	assert.False(t, got.IsDirty())
	assert.Equal(t, int64(2), got.Version)

	_, err = s.Records.Get(ctx, models.TableWorkouts, "missing")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	// повторное удаление ничего не меняет
	res = a.Apply(ctx, models.TableWorkouts, models.TableChanges{Deletes: []string{"w-1"}})
	assert.Zero(t, res.Pulled)
}

func TestChangeApplier_RemoteDeleteWinsOverNewerDirtyLocal(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	// локальная правка новее, но удаление всё равно побеждает
	local := dirtyRecord(models.TableWorkouts, "w-1", 3, t2, map[string]any{"name": "Edited"})
	require.NoError(t, s.Records.Save(ctx, local))

	res := a.Apply(ctx, models.TableWorkouts, models.TableChanges{Deletes: []string{"w-1"}})
	assert.Equal(t, 1, res.Pulled)
	assert.Zero(t, res.Conflicts)
	assert.Empty(t, res.Errors)

	got, err := s.Records.Get(ctx, models.TableWorkouts, "w-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.False(t, got.IsDirty(), "правка не должна уйти на сервер после удаления")
	assert.Equal(t, int64(3), got.Version)
}

func TestChangeApplier_EmptyDeleteIDIsReported(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	require.NoError(t, s.Records.Save(ctx, cleanRecord(models.TableWorkouts, "w-1", 1, t0, nil)))

	res := a.Apply(ctx, models.TableWorkouts, models.TableChanges{Deletes: []string{"", "w-1"}})
	assert.Equal(t, 1, res.Pulled)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrEmptyDeleteID.Error())
}

func TestChangeApplier_MalformedRecordIsReported(t *testing.T) {
	a, s := newTestApplier(t)
	ctx := testContext()

	good := cleanRecord(models.TableExercises, "ok", 1, t1, map[string]any{"name": "Row"})
	res := a.Apply(ctx, models.TableExercises, models.TableChanges{Upserts: []models.WireRecord{
		{"name": "no id"},
		wireOf(t, good),
	}})

	assert.Equal(t, 1, res.Pulled)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrRecordProcessing.Error())

	_, err := s.Records.Get(ctx, models.TableExercises, "ok")
	assert.NoError(t, err)
}

func TestChangeApplier_LostCompareAndSetIsDeferred(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mock.NewMockLocalRecordRepository(ctrl)
	a := NewChangeApplier(records, fieldmap.Default(), NewConflictResolver(), logger.Nop())

	local := cleanRecord(models.TableExercises, "a", 2, t0, nil)
	remote := cleanRecord(models.TableExercises, "a", 2, t1, nil)

	records.EXPECT().Get(gomock.Any(), models.TableExercises, "a").Return(local, nil)
	records.EXPECT().Replace(gomock.Any(), gomock.Any(), int64(2)).Return(false, nil)

	res := a.Apply(testContext(), models.TableExercises, models.TableChanges{Upserts: []models.WireRecord{wireOf(t, remote)}})
	assert.Zero(t, res.Pulled)
	assert.Empty(t, res.Errors)
}

func TestChangeApplier_StoreErrorIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	records := mock.NewMockLocalRecordRepository(ctrl)
	a := NewChangeApplier(records, fieldmap.Default(), NewConflictResolver(), logger.Nop())

	records.EXPECT().Get(gomock.Any(), models.TableExercises, "a").Return(models.Record{}, errors.New("busy"))

	res := a.Apply(testContext(), models.TableExercises, models.TableChanges{Deletes: []string{"a"}})
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "busy")
}
