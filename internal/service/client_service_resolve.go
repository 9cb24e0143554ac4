// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/syncmeta"
	"github.com/MKhiriev/repcue-sync/models"
)

// Resolution is the decision about one incoming remote upsert.
type Resolution struct {
	Winner models.Record

	// RemoteWins is true when the remote record must replace the local one.
	RemoteWins bool

	// Conflict is true when the local record carried unpushed changes.
	Conflict bool
}

type conflictResolver struct{}

// NewConflictResolver returns the last-writer-wins resolver.
func NewConflictResolver() ConflictResolver {
	return conflictResolver{}
}

// Resolve lets a remote record replace a clean local copy unconditionally.
// A dirty local copy competes through syncmeta.ResolveConflict: newer
// updated_at wins, a tie goes to the deleted side, and a tie without a
// deletion disagreement goes to remote.
func (conflictResolver) Resolve(local, remote models.Record) Resolution {
	if !local.IsDirty() {
		return Resolution{Winner: remote, RemoteWins: true}
	}

	_, remoteWins := syncmeta.ResolveConflict(local.SyncMetadata, remote.SyncMetadata)
	if remoteWins {
		return Resolution{Winner: remote, RemoteWins: true, Conflict: true}
	}
	return Resolution{Winner: local, Conflict: true}
}

// ApplyResult aggregates the outcome of applying one table.
type ApplyResult struct {
	Pulled    int
	Conflicts int
	Errors    []string
}

type changeApplier struct {
	records  store.LocalRecordRepository
	mapper   *fieldmap.Mapper
	resolver ConflictResolver
	now      func() time.Time

	logger *logger.Logger
}

// NewChangeApplier returns an applier writing through records.
func NewChangeApplier(records store.LocalRecordRepository, mapper *fieldmap.Mapper, resolver ConflictResolver, logger *logger.Logger) ChangeApplier {
	return &changeApplier{
		records:  records,
		mapper:   mapper,
		resolver: resolver,
		now:      time.Now,
		logger:   logger,
	}
}

// Apply writes remote upserts through the resolver and remote deletes as
// tombstones. A failing record is reported in the result and skipped.
// Writes use the version compare-and-set of the store: a record changed
// locally in the meantime is left as is and settles on the next pass.
func (a *changeApplier) Apply(ctx context.Context, table string, changes models.TableChanges) ApplyResult {
	var result ApplyResult

	for _, w := range changes.Upserts {
		applied, conflict, err := a.applyUpsert(ctx, table, w)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if conflict {
			result.Conflicts++
		}
		if applied {
			result.Pulled++
		}
	}

	for _, id := range changes.Deletes {
		applied, err := a.applyDelete(ctx, table, id)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if applied {
			result.Pulled++
		}
	}

	return result
}

func (a *changeApplier) applyUpsert(ctx context.Context, table string, w models.WireRecord) (applied, conflict bool, err error) {
	log := logger.FromContext(ctx)

	remote, err := a.mapper.ToLocal(table, w)
	if err != nil {
		err = fmt.Errorf("%w %s: %w", ErrRecordProcessing, table, err)
		log.Warn().Err(err).Str("func", "changeApplier.applyUpsert").Msg("skipping malformed remote record")
		return false, false, err
	}

	local, err := a.records.Get(ctx, table, remote.ID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		remote.SyncMetadata = syncmeta.AcceptRemote(models.SyncMetadata{}, remote.SyncMetadata, a.now())
		applied, err = a.replace(ctx, remote, 0)
		return applied, false, err
	case err != nil:
		err = fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, table, remote.ID, err)
		log.Err(err).Str("func", "changeApplier.applyUpsert").Msg("error reading local record")
		return false, false, err
	}

	res := a.resolver.Resolve(local, remote)
	if !res.RemoteWins {
		log.Debug().Str("func", "changeApplier.applyUpsert").Str("table", table).Str("id", local.ID).
			Msg("local record wins")
		return false, res.Conflict, nil
	}

	winner := res.Winner
	winner.SyncMetadata = syncmeta.AcceptRemote(local.SyncMetadata, remote.SyncMetadata, a.now())
	applied, err = a.replace(ctx, winner, local.Version)
	return applied, res.Conflict, err
}

func (a *changeApplier) applyDelete(ctx context.Context, table, id string) (bool, error) {
	log := logger.FromContext(ctx)

	if id == "" {
		err := fmt.Errorf("%w %s: %w", ErrRecordProcessing, table, ErrEmptyDeleteID)
		log.Warn().Err(err).Str("func", "changeApplier.applyDelete").Msg("skipping malformed remote delete")
		return false, err
	}

	local, err := a.records.Get(ctx, table, id)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return false, nil
	case err != nil:
		err = fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, table, id, err)
		log.Err(err).Str("func", "changeApplier.applyDelete").Msg("error reading local record")
		return false, err
	}
	if local.Deleted {
		return false, nil
	}

	// deletes carry no timestamp: a remote delete wins over pending local edits
	if local.IsDirty() {
		log.Info().Str("func", "changeApplier.applyDelete").Str("table", table).Str("id", id).
			Msg("remote delete discards pending local changes")
	}
	local.SyncMetadata = syncmeta.Tombstone(local.SyncMetadata, a.now())
	return a.replace(ctx, local, local.Version)
}

func (a *changeApplier) replace(ctx context.Context, r models.Record, expectedVersion int64) (bool, error) {
	log := logger.FromContext(ctx)

	ok, err := a.records.Replace(ctx, r, expectedVersion)
	if err != nil {
		log.Err(err).Str("func", "changeApplier.replace").Str("table", r.Table).Str("id", r.ID).
			Msg("error writing remote record")
		return false, fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, r.Table, r.ID, err)
	}
	if !ok {
		log.Warn().Str("func", "changeApplier.replace").Str("table", r.Table).Str("id", r.ID).
			Int64("expected_version", expectedVersion).
			Msg("record changed locally during apply, deferring to next pass")
	}
	return ok, nil
}
