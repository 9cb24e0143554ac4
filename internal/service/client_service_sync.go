// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/syncmeta"
	"github.com/MKhiriev/repcue-sync/models"
)

const syncFlightKey = "sync"

// OrchestratorDeps are the collaborators of the sync orchestrator.
type OrchestratorDeps struct {
	Records   store.LocalRecordRepository
	State     store.SyncStateRepository
	Harvester DirtyHarvester
	Applier   ChangeApplier
	Cursors   CursorManager
	Queue     RetryQueue
	Transport adapter.SyncTransport

	Auth    capability.Auth
	Consent capability.Consent
	Network capability.Network

	ClientInfo models.ClientInfo
	Tables     []string
}

type syncOrchestrator struct {
	OrchestratorDeps

	flight singleflight.Group
	passMu sync.Mutex

	statusMu sync.RWMutex
	status   models.SyncStatus
	statuses *capability.Broadcaster[models.SyncStatus]

	now func() time.Time
}

// NewSyncOrchestrator restores the last sync timestamps and the pending
// counter from the local store and returns an idle orchestrator.
func NewSyncOrchestrator(ctx context.Context, deps OrchestratorDeps) (SyncOrchestrator, error) {
	if len(deps.Tables) == 0 {
		deps.Tables = models.DefaultTableOrder
	}

	o := &syncOrchestrator{
		OrchestratorDeps: deps,
		statuses:         capability.NewBroadcaster[models.SyncStatus](),
		now:              time.Now,
	}
	o.status.Errors = []string{}
	o.status.IsOnline = deps.Network == nil || deps.Network.IsOnline()

	var err error
	if o.status.LastSyncAt, err = o.loadTime(ctx, store.StateKeyLastSyncAt); err != nil {
		return nil, err
	}
	if o.status.LastSuccessAt, err = o.loadTime(ctx, store.StateKeyLastSuccess); err != nil {
		return nil, err
	}
	if o.status.PendingChanges, err = o.Records.CountDirty(ctx); err != nil {
		return nil, fmt.Errorf("count pending changes: %w", err)
	}

	return o, nil
}

func (o *syncOrchestrator) Sync(ctx context.Context, force bool) models.SyncResult {
	log := logger.FromContext(ctx)

	if res, ok := o.precheck(ctx); !ok {
		return res
	}

	// проход не прерывается вместе с контекстом вызывающего
	passCtx := context.WithoutCancel(ctx)

	if force {
		return o.runPass(passCtx, true)
	}

	ch := o.flight.DoChan(syncFlightKey, func() (any, error) {
		return o.runPass(passCtx, false), nil
	})

	select {
	case <-ctx.Done():
		log.Debug().Str("func", "syncOrchestrator.Sync").Msg("caller left, pass continues in background")
		res := newResult()
		res.Success = false
		res.AddError(ctx.Err().Error())
		return res
	case r := <-ch:
		if r.Shared {
			log.Debug().Str("func", "syncOrchestrator.Sync").Msg("joined pass in flight")
		}
		return r.Val.(models.SyncResult)
	}
}

func (o *syncOrchestrator) ForceSync(ctx context.Context) models.SyncResult {
	return o.Sync(ctx, true)
}

func (o *syncOrchestrator) OnStatusChange() (<-chan models.SyncStatus, func()) {
	return o.statuses.Subscribe()
}

func (o *syncOrchestrator) Status(_ context.Context) models.SyncStatus {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()

	st := o.status
	st.IsOnline = o.Network == nil || o.Network.IsOnline()
	st.Errors = slices.Clone(o.status.Errors)
	return st
}

func (o *syncOrchestrator) HasChangesToSync(ctx context.Context) (bool, error) {
	dirty, err := o.Records.CountDirty(ctx)
	if err != nil {
		return false, fmt.Errorf("count pending changes: %w", err)
	}
	if dirty > 0 {
		return true, nil
	}
	if o.Queue == nil {
		return false, nil
	}
	queued, err := o.Queue.Size(ctx)
	if err != nil {
		return false, fmt.Errorf("count queued operations: %w", err)
	}
	return queued > 0, nil
}

func (o *syncOrchestrator) ClearSyncData(ctx context.Context) error {
	log := logger.FromContext(ctx)

	o.passMu.Lock()
	defer o.passMu.Unlock()

	var errs []error
	errs = append(errs, o.Cursors.Clear(ctx))
	errs = append(errs, o.State.Delete(ctx, store.StateKeyLastSyncAt))
	errs = append(errs, o.State.Delete(ctx, store.StateKeyLastSuccess))
	if o.Queue != nil {
		errs = append(errs, o.Queue.Clear(ctx))
	}
	errs = append(errs, o.Records.ClearSyncFlags(ctx))
	if err := errors.Join(errs...); err != nil {
		log.Err(err).Str("func", "syncOrchestrator.ClearSyncData").Msg("error clearing sync data")
		return fmt.Errorf("clear sync data: %w", err)
	}

	o.updateStatus(ctx, func(st *models.SyncStatus) {
		st.LastSyncAt = nil
		st.LastSuccessAt = nil
		st.Errors = []string{}
	})

	log.Info().Str("func", "syncOrchestrator.ClearSyncData").Msg("sync data cleared")
	return nil
}

func (o *syncOrchestrator) HandleNetworkChange(ctx context.Context, online bool) (models.SyncResult, bool) {
	log := logger.FromContext(ctx)
	log.Info().Str("func", "syncOrchestrator.HandleNetworkChange").Bool("online", online).Msg("network changed")

	o.updateStatus(ctx, func(st *models.SyncStatus) { st.IsOnline = online })

	if !online || o.Auth == nil || !o.Auth.IsAuthenticated() {
		return models.SyncResult{}, false
	}
	return o.Sync(ctx, false), true
}

// precheck returns ok=false with the result to hand back when a pass must
// not start.
func (o *syncOrchestrator) precheck(ctx context.Context) (models.SyncResult, bool) {
	log := logger.FromContext(ctx)

	if o.Consent != nil && !o.Consent.HasConsent() {
		log.Debug().Err(ErrConsentDenied).Str("func", "syncOrchestrator.precheck").Msg("sync skipped")
		return newResult(), false
	}
	if o.Auth == nil || !o.Auth.IsAuthenticated() {
		log.Debug().Err(ErrUnauthenticated).Str("func", "syncOrchestrator.precheck").Msg("sync skipped")
		return newResult(), false
	}
	if o.Network != nil && !o.Network.IsOnline() {
		log.Info().Err(ErrOffline).Str("func", "syncOrchestrator.precheck").Msg("sync skipped")
		res := newResult()
		res.Success = false
		res.AddError(ErrOffline.Error())
		o.updateStatus(ctx, func(st *models.SyncStatus) { st.Errors = slices.Clone(res.Errors) })
		return res, false
	}
	return models.SyncResult{}, true
}

func (o *syncOrchestrator) runPass(ctx context.Context, force bool) models.SyncResult {
	o.passMu.Lock()
	defer o.passMu.Unlock()

	log := logger.FromContext(ctx)
	started := o.now()
	o.updateStatus(ctx, func(st *models.SyncStatus) { st.IsSyncing = true })

	res := o.pass(ctx, force)

	finished := o.now().UTC()
	pending, err := o.Records.CountDirty(ctx)
	if err != nil {
		log.Err(err).Str("func", "syncOrchestrator.runPass").Msg("error counting pending changes")
	}
	o.saveTime(ctx, store.StateKeyLastSyncAt, finished)
	if res.Success {
		o.saveTime(ctx, store.StateKeyLastSuccess, finished)
	}
	o.updateStatus(ctx, func(st *models.SyncStatus) {
		st.IsSyncing = false
		st.IsOnline = o.Network == nil || o.Network.IsOnline()
		st.LastSyncAt = &finished
		if res.Success {
			st.LastSuccessAt = &finished
		}
		if err == nil {
			st.PendingChanges = pending
		}
		st.Errors = slices.Clone(res.Errors)
	})

	log.Info().Str("func", "syncOrchestrator.runPass").
		Bool("success", res.Success).
		Bool("skipped", res.Skipped).
		Int("pushed", res.RecordsPushed).
		Int("pulled", res.RecordsPulled).
		Int("conflicts", res.Conflicts).
		Int("errors", len(res.Errors)).
		Dur("took", o.now().Sub(started)).
		Msg("sync pass finished")

	return res
}

func (o *syncOrchestrator) pass(ctx context.Context, force bool) models.SyncResult {
	log := logger.FromContext(ctx)
	res := newResult()

	o.claimUnowned(ctx, &res)

	cursor, err := o.Cursors.Load(ctx)
	if err != nil {
		res.AddError(err.Error())
	}

	harvested, err := o.Harvester.HarvestAll(ctx)
	if err != nil {
		res.Success = false
		res.AddError(err.Error())
		return res
	}

	req := models.SyncRequest{
		Since:      cursor,
		Tables:     make(map[string]models.TableChanges, len(harvested)),
		ClientInfo: o.ClientInfo,
	}
	pending := 0
	for _, h := range harvested {
		req.Tables[h.Table] = h.Changes
		pending += h.Changes.Len()
		for _, msg := range h.Errors {
			res.AddError(msg)
		}
	}

	if pending == 0 && cursor != nil && !force {
		log.Debug().Str("func", "syncOrchestrator.pass").Msg("nothing to push, skipping round trip")
		res.Skipped = true
		return res
	}

	resp, err := o.Transport.CallSync(ctx, req)
	if err != nil {
		log.Err(err).Str("func", "syncOrchestrator.pass").Str("kind", string(adapter.KindOf(err))).
			Msg("sync round trip failed")
		res.Success = false
		res.AddError(err.Error())
		return res
	}

	tables := o.responseTables(resp)
	for _, table := range tables {
		applied := o.Applier.Apply(ctx, table, resp.Changes[table])
		res.RecordsPulled += applied.Pulled
		res.Conflicts += applied.Conflicts
		for _, msg := range applied.Errors {
			res.AddError(msg)
		}
	}

	res.RecordsPushed = pending
	o.markPushed(ctx, harvested, &res)

	if err = o.Cursors.Save(ctx, resp.Cursor); err != nil {
		res.AddError(err.Error())
	}

	res.TablesProcessed = len(tables)
	return res
}

// responseTables lists the declared tables first, then any extra table of
// the response in name order.
func (o *syncOrchestrator) responseTables(resp models.SyncResponse) []string {
	tables := slices.Clone(o.Tables)
	var extra []string
	for name := range resp.Changes {
		if !slices.Contains(tables, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(tables, extra...)
}

// markPushed clears the dirty flag of every pushed record whose version did
// not change since it was harvested.
func (o *syncOrchestrator) markPushed(ctx context.Context, harvested []HarvestResult, res *models.SyncResult) {
	log := logger.FromContext(ctx)
	at := o.now()

	for _, h := range harvested {
		for _, r := range h.Records {
			ok, err := o.Records.MarkSynced(ctx, h.Table, syncmeta.MarkSynced(r.SyncMetadata, at))
			if err != nil {
				res.AddError(fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, h.Table, r.ID, err).Error())
				continue
			}
			if !ok {
				log.Debug().Str("func", "syncOrchestrator.markPushed").Str("table", h.Table).Str("id", r.ID).
					Msg("record changed during pass, stays dirty")
			}
		}
	}
}

// claimUnowned assigns records created before login to the current identity.
// The claim is a local mutation so the owner is pushed with the record.
func (o *syncOrchestrator) claimUnowned(ctx context.Context, res *models.SyncResult) {
	log := logger.FromContext(ctx)

	owner := o.Auth.OwnerID()
	if owner == "" {
		return
	}

	unowned, err := o.Records.ListUnowned(ctx)
	if err != nil {
		res.AddError(err.Error())
		return
	}

	now := o.now()
	for _, r := range unowned {
		claimed, err := syncmeta.ClaimOwner(r.SyncMetadata, owner)
		if err != nil {
			res.AddError(fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, r.Table, r.ID, err).Error())
			continue
		}

		next := r
		if r.Deleted {
			next.SyncMetadata = syncmeta.MarkDeleted(claimed, nil, now)
		} else {
			next.SyncMetadata = syncmeta.Update(claimed, nil, now)
		}

		ok, err := o.Records.Replace(ctx, next, r.Version)
		if err != nil {
			res.AddError(fmt.Errorf("%w %s/%s: %w", ErrRecordProcessing, r.Table, r.ID, err).Error())
			continue
		}
		if !ok {
			log.Warn().Str("func", "syncOrchestrator.claimUnowned").Str("table", r.Table).Str("id", r.ID).
				Msg("record changed while claiming, retrying next pass")
		}
	}

	if len(unowned) > 0 {
		log.Info().Str("func", "syncOrchestrator.claimUnowned").Int("records", len(unowned)).
			Msg("claimed anonymous records")
	}
}

func (o *syncOrchestrator) updateStatus(_ context.Context, fn func(*models.SyncStatus)) {
	o.statusMu.Lock()
	fn(&o.status)
	st := o.status
	st.Errors = slices.Clone(o.status.Errors)
	o.statusMu.Unlock()

	o.statuses.Publish(st)
}

func (o *syncOrchestrator) loadTime(ctx context.Context, key string) (*time.Time, error) {
	v, err := o.State.Get(ctx, key)
	if errors.Is(err, store.ErrStateNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("func", "syncOrchestrator.loadTime").Str("key", key).
			Msg("discarding malformed timestamp")
		return nil, nil
	}
	return &t, nil
}

func (o *syncOrchestrator) saveTime(ctx context.Context, key string, t time.Time) {
	if err := o.State.Set(ctx, key, t.Format(time.RFC3339Nano)); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "syncOrchestrator.saveTime").Str("key", key).
			Msg("error saving timestamp")
	}
}

func newResult() models.SyncResult {
	return models.SyncResult{Success: true, Errors: []string{}}
}
