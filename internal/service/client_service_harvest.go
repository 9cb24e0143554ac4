// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/models"
)

const defaultHarvestBatchSize = 5

// HarvestResult is the outcome of harvesting one table.
type HarvestResult struct {
	Table string

	// Changes is the wire payload of the table. Both slices are non-nil.
	Changes models.TableChanges

	// Records are the local records that made it into Changes. They are
	// marked synced once the remote store acknowledged them.
	Records []models.Record

	// Errors holds one message per record that could not be converted.
	Errors []string
}

type dirtyHarvester struct {
	records   store.LocalRecordRepository
	mapper    *fieldmap.Mapper
	tables    []string
	batchSize int

	logger *logger.Logger
}

// NewDirtyHarvester returns a harvester over the configured table order.
func NewDirtyHarvester(records store.LocalRecordRepository, mapper *fieldmap.Mapper, cfg config.ClientSync, logger *logger.Logger) DirtyHarvester {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultHarvestBatchSize
	}
	tables := cfg.TableOrder
	if len(tables) == 0 {
		tables = models.DefaultTableOrder
	}

	return &dirtyHarvester{
		records:   records,
		mapper:    mapper,
		tables:    tables,
		batchSize: batch,
		logger:    logger,
	}
}

func (h *dirtyHarvester) Harvest(ctx context.Context, table string) (HarvestResult, error) {
	log := logger.FromContext(ctx)

	result := HarvestResult{
		Table: table,
		Changes: models.TableChanges{
			Upserts: []models.WireRecord{},
			Deletes: []string{},
		},
	}

	dirty, err := h.records.ListDirty(ctx, table, h.batchSize)
	if err != nil {
		log.Err(err).Str("func", "dirtyHarvester.Harvest").Str("table", table).Msg("error listing dirty records")
		return result, fmt.Errorf("harvest %s: %w", table, err)
	}

	for _, r := range dirty {
		if r.Op == models.OpDelete || r.Deleted {
			result.Changes.Deletes = append(result.Changes.Deletes, r.ID)
			result.Records = append(result.Records, r)
			continue
		}

		wire, err := h.mapper.ToWire(r)
		if err != nil {
			err = fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, table, r.ID, err)
			log.Warn().Err(err).Str("func", "dirtyHarvester.Harvest").Msg("skipping malformed record")
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Changes.Upserts = append(result.Changes.Upserts, wire)
		result.Records = append(result.Records, r)
	}

	log.Debug().Str("func", "dirtyHarvester.Harvest").Str("table", table).
		Int("upserts", len(result.Changes.Upserts)).
		Int("deletes", len(result.Changes.Deletes)).
		Msg("table harvested")

	return result, nil
}

// HarvestAll does not stop at a failing table: the failure is recorded in
// that table's result and the remaining tables are still harvested.
func (h *dirtyHarvester) HarvestAll(ctx context.Context) ([]HarvestResult, error) {
	results := make([]HarvestResult, 0, len(h.tables))
	for _, table := range h.tables {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := h.Harvest(ctx, table)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
		}
		results = append(results, res)
	}
	return results, nil
}
