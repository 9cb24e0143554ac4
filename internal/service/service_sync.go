package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/fieldmap"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/syncmeta"
	"github.com/MKhiriev/repcue-sync/internal/validators"
	"github.com/MKhiriev/repcue-sync/models"
)

// errRejected marks a pushed record that is skipped while the rest of the
// request is applied.
var errRejected = errors.New("record rejected")

// remoteSyncService serves the remote side of the protocol on a
// [store.RemoteStore]. Every accepted write gets the next value of a global
// sequence; the cursor handed to clients is the sequence value at response
// time.
type remoteSyncService struct {
	records   store.RemoteStore
	mapper    *fieldmap.Mapper
	validator validators.Validator
	now       func() time.Time

	logger *logger.Logger
}

func NewRemoteSyncService(records store.RemoteStore, mapper *fieldmap.Mapper, validator validators.Validator, logger *logger.Logger) RemoteSyncService {
	return &remoteSyncService{
		records:   records,
		mapper:    mapper,
		validator: validator,
		now:       time.Now,
		logger:    logger,
	}
}

type entryKey struct {
	table, id string
}

// Sync applies the pushed changes with last-writer-wins by updated_at,
// deletion winning ties, then answers with the changes after req.Since.
// Writes made by the requesting device are not echoed back, except when its
// push lost against a version the device has already passed with its
// cursor: that version is sent again so the device converges.
func (s *remoteSyncService) Sync(ctx context.Context, ownerID string, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, req); err != nil {
		return models.SyncResponse{}, fmt.Errorf("%w: %w", ErrInvalidSyncRequest, err)
	}
	since, err := parseCursor(req.Since)
	if err != nil {
		return models.SyncResponse{}, err
	}

	device := req.ClientInfo.DeviceID
	var resp models.SyncResponse

	err = s.records.Tx(ctx, func(ctx context.Context, tx store.RemoteTx) error {
		lost := make(map[entryKey]struct{})

		for _, table := range slices.Sorted(maps.Keys(req.Tables)) {
			changes := req.Tables[table]
			for _, w := range changes.Upserts {
				accepted, id, err := s.upsert(ctx, tx, ownerID, table, w, device)
				if errors.Is(err, errRejected) {
					log.Warn().Err(err).Str("func", "remoteSyncService.Sync").Str("table", table).
						Msg("rejected pushed record")
					continue
				}
				if err != nil {
					return err
				}
				if !accepted {
					lost[entryKey{table, id}] = struct{}{}
				}
			}
			for _, id := range changes.Deletes {
				if err := s.delete(ctx, tx, ownerID, table, id, device); err != nil {
					return err
				}
			}
		}

		var err error
		resp, err = s.collect(ctx, tx, ownerID, device, since, lost)
		return err
	})
	if err != nil {
		log.Err(err).Str("func", "remoteSyncService.Sync").Str("owner", ownerID).Msg("sync failed")
		return models.SyncResponse{}, err
	}

	log.Debug().Str("func", "remoteSyncService.Sync").Str("owner", ownerID).Str("device", device).
		Int64("since", since).Str("cursor", resp.Cursor).Int("pushed", req.RecordCount()).
		Msg("sync served")

	return resp, nil
}

// collect builds the response: entries written after since by other devices
// plus the stored versions that beat this request's pushes.
func (s *remoteSyncService) collect(ctx context.Context, tx store.RemoteTx, ownerID, device string, since int64, lost map[entryKey]struct{}) (models.SyncResponse, error) {
	cursor, err := tx.Cursor(ctx)
	if err != nil {
		return models.SyncResponse{}, err
	}
	entries, err := tx.ChangesSince(ctx, ownerID, since)
	if err != nil {
		return models.SyncResponse{}, err
	}

	selected := make(map[entryKey]store.RemoteEntry)
	for _, e := range entries {
		if e.Device != device {
			selected[entryKey{e.Table, e.Meta.ID}] = e
		}
	}
	for k := range lost {
		if _, ok := selected[k]; ok {
			continue
		}
		e, err := tx.Get(ctx, ownerID, k.table, k.id)
		if err != nil {
			return models.SyncResponse{}, err
		}
		selected[k] = e
	}

	resp := models.SyncResponse{
		Changes: make(map[string]models.TableChanges),
		Cursor:  strconv.FormatInt(cursor, 10),
	}
	keys := slices.SortedFunc(maps.Keys(selected), func(a, b entryKey) int {
		if a.table != b.table {
			return strings.Compare(a.table, b.table)
		}
		return strings.Compare(a.id, b.id)
	})
	for _, k := range keys {
		e := selected[k]
		changes, ok := resp.Changes[k.table]
		if !ok {
			changes = models.TableChanges{Upserts: []models.WireRecord{}, Deletes: []string{}}
		}
		if e.Meta.Deleted {
			changes.Deletes = append(changes.Deletes, k.id)
		} else {
			changes.Upserts = append(changes.Upserts, e.Wire)
		}
		resp.Changes[k.table] = changes
	}
	return resp, nil
}

func (s *remoteSyncService) ApplyOperation(ctx context.Context, ownerID, table string, op models.QueueOperation) error {
	log := logger.FromContext(ctx)

	if table == "" {
		return fmt.Errorf("%w: empty table", ErrInvalidOperation)
	}
	var deleteID string
	switch op.Type {
	case models.OperationCreate, models.OperationUpdate:
	case models.OperationDelete:
		deleteID, _ = op.Payload[fieldmap.WireID].(string)
		if deleteID == "" {
			return fmt.Errorf("%w: delete without id", ErrInvalidOperation)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, op.Type)
	}

	return s.records.Tx(ctx, func(ctx context.Context, tx store.RemoteTx) error {
		if op.ID != "" {
			fresh, err := tx.MarkApplied(ctx, op.ID)
			if err != nil {
				return err
			}
			if !fresh {
				log.Debug().Str("func", "remoteSyncService.ApplyOperation").Str("op_id", op.ID).Msg("duplicate operation")
				return nil
			}
		}

		if op.Type == models.OperationDelete {
			return s.delete(ctx, tx, ownerID, table, deleteID, "")
		}

		_, _, err := s.upsert(ctx, tx, ownerID, table, models.WireRecord(op.Payload), "")
		if errors.Is(err, errRejected) {
			return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
		}
		return err
	})
}

// upsert reports whether the incoming record replaced the stored one.
func (s *remoteSyncService) upsert(ctx context.Context, tx store.RemoteTx, ownerID, table string, w models.WireRecord, device string) (bool, string, error) {
	rec, err := s.mapper.ToLocal(table, w)
	if err != nil {
		return false, "", fmt.Errorf("%w: %w", errRejected, err)
	}
	if rec.IsOwned() && *rec.OwnerID != ownerID {
		return false, rec.ID, fmt.Errorf("%w: %w: %s/%s", errRejected, ErrForbidden, table, rec.ID)
	}

	existing, err := tx.Get(ctx, ownerID, table, rec.ID)
	switch {
	case err == nil:
		if _, incomingWins := syncmeta.ResolveConflict(existing.Meta, rec.SyncMetadata); !incomingWins {
			return false, rec.ID, nil
		}
	case errors.Is(err, store.ErrRemoteEntryNotFound):
	default:
		return false, rec.ID, err
	}

	wire := maps.Clone(w)
	wire[fieldmap.WireOwnerID] = ownerID
	owner := ownerID
	rec.OwnerID = &owner

	_, err = tx.Put(ctx, store.RemoteEntry{OwnerID: ownerID, Table: table, Meta: rec.SyncMetadata, Wire: wire, Device: device})
	return err == nil, rec.ID, err
}

func (s *remoteSyncService) delete(ctx context.Context, tx store.RemoteTx, ownerID, table, id, device string) error {
	existing, err := tx.Get(ctx, ownerID, table, id)
	if errors.Is(err, store.ErrRemoteEntryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.Meta.Deleted {
		return nil
	}

	meta := syncmeta.MarkDeleted(existing.Meta, nil, s.now())
	wire := existing.Wire
	wire[fieldmap.WireDeleted] = true
	wire[fieldmap.WireUpdatedAt] = meta.UpdatedAt.Format(time.RFC3339Nano)
	wire[fieldmap.WireVersion] = meta.Version

	_, err = tx.Put(ctx, store.RemoteEntry{OwnerID: ownerID, Table: table, Meta: meta, Wire: wire, Device: device})
	return err
}

func parseCursor(cursor *string) (int64, error) {
	if cursor == nil || *cursor == "" {
		return 0, nil
	}
	seq, err := strconv.ParseInt(*cursor, 10, 64)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, *cursor)
	}
	return seq, nil
}
