// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/mock"
	"github.com/MKhiriev/repcue-sync/models"
)

func newTestHarvester(t *testing.T, cfg config.ClientSync) (DirtyHarvester, *mock.MockLocalRecordRepository) {
	ctrl := gomock.NewController(t)
	records := mock.NewMockLocalRecordRepository(ctrl)
	return NewDirtyHarvester(records, fieldmap.Default(), cfg, logger.Nop()), records
}

// ── Harvest ──────────────────────────────────────────────────────────────────

func TestDirtyHarvester_Harvest_Partitions(t *testing.T) {
	h, records := newTestHarvester(t, config.ClientSync{})

	upsert := dirtyRecord(models.TableExercises, "ex-1", 2, t1, map[string]any{"name": "Squat", "muscleGroup": "legs"})
	deleted := dirtyRecord(models.TableExercises, "ex-2", 3, t1, nil)
	deleted.Deleted = true
	deleted.Op = models.OpDelete
	// op=delete без флага deleted тоже уходит в deletes
	opDelete := dirtyRecord(models.TableExercises, "ex-3", 2, t1, nil)
	opDelete.Op = models.OpDelete

	records.EXPECT().ListDirty(gomock.Any(), models.TableExercises, defaultHarvestBatchSize).
		Return([]models.Record{upsert, deleted, opDelete}, nil)

	res, err := h.Harvest(testContext(), models.TableExercises)
	require.NoError(t, err)

	assert.Equal(t, models.TableExercises, res.Table)
	require.Len(t, res.Changes.Upserts, 1)
	assert.Equal(t, []string{"ex-2", "ex-3"}, res.Changes.Deletes)
	assert.Len(t, res.Records, 3)
	assert.Empty(t, res.Errors)

	wire := res.Changes.Upserts[0]
	assert.Equal(t, "ex-1", wire[fieldmap.WireID])
	assert.Equal(t, "legs", wire["muscle_group"])
	assert.NotContains(t, wire, "muscleGroup")
	assert.NotContains(t, wire, "dirty")
	assert.NotContains(t, wire, "op")
	assert.NotContains(t, wire, "syncedAt")
}

func TestDirtyHarvester_Harvest_EmptyTableHasNonNilSlices(t *testing.T) {
	h, records := newTestHarvester(t, config.ClientSync{BatchSize: 2})

	records.EXPECT().ListDirty(gomock.Any(), models.TableWorkouts, 2).Return(nil, nil)

	res, err := h.Harvest(testContext(), models.TableWorkouts)
	require.NoError(t, err)

	assert.NotNil(t, res.Changes.Upserts)
	assert.NotNil(t, res.Changes.Deletes)
	assert.True(t, res.Changes.IsEmpty())
}

func TestDirtyHarvester_Harvest_MalformedRecordDoesNotAbortBatch(t *testing.T) {
	h, records := newTestHarvester(t, config.ClientSync{})

	broken := dirtyRecord(models.TableExercises, "", 1, t1, map[string]any{"name": "?"})
	good := dirtyRecord(models.TableExercises, "ex-1", 1, t1, map[string]any{"name": "Squat"})

	records.EXPECT().ListDirty(gomock.Any(), models.TableExercises, gomock.Any()).
		Return([]models.Record{broken, good}, nil)

	res, err := h.Harvest(testContext(), models.TableExercises)
	require.NoError(t, err)

	require.Len(t, res.Changes.Upserts, 1)
	assert.Equal(t, "ex-1", res.Changes.Upserts[0][fieldmap.WireID])
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrRecordProcessing.Error())
	// сломанная запись не помечается как отправленная
	require.Len(t, res.Records, 1)
	assert.Equal(t, "ex-1", res.Records[0].ID)
}

func TestDirtyHarvester_Harvest_StoreError(t *testing.T) {
	h, records := newTestHarvester(t, config.ClientSync{})

	boom := errors.New("disk I/O error")
	records.EXPECT().ListDirty(gomock.Any(), models.TableExercises, gomock.Any()).Return(nil, boom)

	_, err := h.Harvest(testContext(), models.TableExercises)
	require.ErrorIs(t, err, boom)
}

// ── HarvestAll ───────────────────────────────────────────────────────────────

func TestDirtyHarvester_HarvestAll_DeclaredOrder(t *testing.T) {
	order := []string{models.TableAppSettings, models.TableUserPreferences, models.TableWorkouts}
	h, records := newTestHarvester(t, config.ClientSync{TableOrder: order})

	gomock.InOrder(
		records.EXPECT().ListDirty(gomock.Any(), models.TableAppSettings, gomock.Any()).Return(nil, nil),
		records.EXPECT().ListDirty(gomock.Any(), models.TableUserPreferences, gomock.Any()).Return(nil, nil),
		records.EXPECT().ListDirty(gomock.Any(), models.TableWorkouts, gomock.Any()).Return(nil, nil),
	)

	res, err := h.HarvestAll(testContext())
	require.NoError(t, err)
	require.Len(t, res, 3)
	for i, table := range order {
		assert.Equal(t, table, res[i].Table)
	}
}

func TestDirtyHarvester_HarvestAll_FailingTableIsReported(t *testing.T) {
	order := []string{models.TableExercises, models.TableWorkouts}
	h, records := newTestHarvester(t, config.ClientSync{TableOrder: order})

	records.EXPECT().ListDirty(gomock.Any(), models.TableExercises, gomock.Any()).
		Return(nil, errors.New("locked"))
	records.EXPECT().ListDirty(gomock.Any(), models.TableWorkouts, gomock.Any()).
		Return([]models.Record{dirtyRecord(models.TableWorkouts, "w-1", 1, t1, nil)}, nil)

	res, err := h.HarvestAll(testContext())
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.NotEmpty(t, res[0].Errors)
	assert.Len(t, res[1].Changes.Upserts, 1)
}

// ── Round trip ───────────────────────────────────────────────────────────────

func TestDirtyHarvester_RoundTripReproducesDomainFields(t *testing.T) {
	h, records := newTestHarvester(t, config.ClientSync{})

	fields := map[string]any{
		"name":        "Bench press",
		"muscleGroup": "chest",
		"isFavorite":  true,
		"defaultSets": float64(5),
		"notes":       "pause reps",
	}
	original := dirtyRecord(models.TableExercises, "ex-7", 4, t2, fields)
	records.EXPECT().ListDirty(gomock.Any(), models.TableExercises, gomock.Any()).
		Return([]models.Record{original}, nil)

	res, err := h.Harvest(testContext(), models.TableExercises)
	require.NoError(t, err)
	require.Len(t, res.Changes.Upserts, 1)

	back, err := fieldmap.Default().ToLocal(models.TableExercises, res.Changes.Upserts[0])
	require.NoError(t, err)

	assert.Equal(t, original.Fields, back.Fields)
	assert.Equal(t, original.ID, back.ID)
	assert.Equal(t, original.Version, back.Version)
	assert.True(t, original.UpdatedAt.Equal(back.UpdatedAt))
}
