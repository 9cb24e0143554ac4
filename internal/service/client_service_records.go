package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/internal/syncmeta"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/internal/validators"
	"github.com/MKhiriev/repcue-sync/models"
)

// maxWriteAttempts bounds the compare-and-set retries of a local write.
const maxWriteAttempts = 3

type clientRecordService struct {
	records   store.LocalRecordRepository
	auth      capability.Auth
	validator validators.Validator
	ids       utils.IDGenerator
	tables    []string
	now       func() time.Time

	logger *logger.Logger
}

// NewClientRecordService returns the local write path. Records written
// while authenticated are owned by the current identity; anonymous records
// are claimed on the first authenticated sync.
func NewClientRecordService(
	records store.LocalRecordRepository,
	auth capability.Auth,
	validator validators.Validator,
	ids utils.IDGenerator,
	tables []string,
	logger *logger.Logger,
) ClientRecordService {
	if len(tables) == 0 {
		tables = models.DefaultTableOrder
	}
	return &clientRecordService{
		records:   records,
		auth:      auth,
		validator: validator,
		ids:       ids,
		tables:    tables,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *clientRecordService) Create(ctx context.Context, table string, fields map[string]any) (models.Record, error) {
	if err := s.checkTable(table); err != nil {
		return models.Record{}, err
	}

	r := models.Record{
		SyncMetadata: syncmeta.Create(s.ids.Generate(), s.owner(), s.now()),
		Table:        table,
		Fields:       fields,
	}
	if err := s.validator.Validate(ctx, r); err != nil {
		return models.Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	ok, err := s.records.Replace(ctx, r, 0)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "clientRecordService.Create").Str("table", table).
			Msg("error creating record")
		return models.Record{}, err
	}
	if !ok {
		return models.Record{}, ErrConcurrentModification
	}
	return r, nil
}

func (s *clientRecordService) Put(ctx context.Context, table, id string, fields map[string]any) (models.Record, error) {
	return s.write(ctx, table, id, func(current *models.Record) (models.Record, error) {
		if current == nil {
			return models.Record{
				SyncMetadata: syncmeta.Create(id, s.owner(), s.now()),
				Table:        table,
				Fields:       fields,
			}, nil
		}
		next := *current
		if current.Deleted {
			next.SyncMetadata = syncmeta.Restore(current.SyncMetadata, s.owner(), s.now())
		} else {
			next.SyncMetadata = syncmeta.Update(current.SyncMetadata, s.owner(), s.now())
		}
		next.Fields = fields
		return next, nil
	})
}

func (s *clientRecordService) Update(ctx context.Context, table, id string, fields map[string]any) (models.Record, error) {
	return s.write(ctx, table, id, func(current *models.Record) (models.Record, error) {
		if current == nil || current.Deleted {
			return models.Record{}, ErrRecordNotFound
		}
		next := *current
		next.SyncMetadata = syncmeta.Update(current.SyncMetadata, s.owner(), s.now())
		next.Fields = fields
		return next, nil
	})
}

func (s *clientRecordService) Delete(ctx context.Context, table, id string) (models.Record, error) {
	return s.write(ctx, table, id, func(current *models.Record) (models.Record, error) {
		if current == nil {
			return models.Record{}, ErrRecordNotFound
		}
		if current.Deleted {
			return *current, nil
		}
		next := *current
		next.SyncMetadata = syncmeta.MarkDeleted(current.SyncMetadata, s.owner(), s.now())
		return next, nil
	})
}

func (s *clientRecordService) Get(ctx context.Context, table, id string) (models.Record, error) {
	if err := s.checkTable(table); err != nil {
		return models.Record{}, err
	}
	r, err := s.records.Get(ctx, table, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return models.Record{}, ErrRecordNotFound
	}
	return r, err
}

func (s *clientRecordService) List(ctx context.Context, table string) ([]models.Record, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	all, err := s.records.List(ctx, table)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(r models.Record) bool { return r.Deleted }), nil
}

// write loads the current record, computes the next one with mutate and
// stores it with a version compare-and-set, retrying when a concurrent
// writer got in between. mutate returning the current record unchanged
// skips the write.
func (s *clientRecordService) write(ctx context.Context, table, id string, mutate func(*models.Record) (models.Record, error)) (models.Record, error) {
	log := logger.FromContext(ctx)

	if err := s.checkTable(table); err != nil {
		return models.Record{}, err
	}
	if id == "" {
		return models.Record{}, fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var (
			current  *models.Record
			expected int64
		)
		stored, err := s.records.Get(ctx, table, id)
		switch {
		case err == nil:
			current = &stored
			expected = stored.Version
		case !errors.Is(err, store.ErrRecordNotFound):
			log.Err(err).Str("func", "clientRecordService.write").Str("table", table).Str("id", id).
				Msg("error reading record")
			return models.Record{}, err
		}

		next, err := mutate(current)
		if err != nil {
			return models.Record{}, err
		}
		if current != nil && next.Version == current.Version {
			return next, nil
		}
		if err = s.validator.Validate(ctx, next); err != nil {
			return models.Record{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
		}

		ok, err := s.records.Replace(ctx, next, expected)
		if err != nil {
			log.Err(err).Str("func", "clientRecordService.write").Str("table", table).Str("id", id).
				Msg("error writing record")
			return models.Record{}, err
		}
		if ok {
			return next, nil
		}
		log.Debug().Str("func", "clientRecordService.write").Str("table", table).Str("id", id).
			Int("attempt", attempt+1).Msg("version changed concurrently, retrying")
	}

	return models.Record{}, ErrConcurrentModification
}

func (s *clientRecordService) owner() *string {
	if s.auth == nil {
		return nil
	}
	owner := s.auth.OwnerID()
	if owner == "" {
		return nil
	}
	return &owner
}

func (s *clientRecordService) checkTable(table string) error {
	if !slices.Contains(s.tables, table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return nil
}
