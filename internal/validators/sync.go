// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/MKhiriev/repcue-sync/models"
)

// tableNamePattern matches snake_case table names.
var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SyncValidator validates the wire types of the sync protocol and retry queue
// operations. Struct tags are checked with go-playground/validator; the rules
// that tags cannot express (record ids inside opaque upserts, table names)
// are checked by hand.
type SyncValidator struct {
	validate *validator.Validate
}

func NewSyncValidator() Validator {
	return &SyncValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *SyncValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SyncRequest:
		return v.validateSyncRequest(ctx, value, fields...)
	case *models.SyncRequest:
		return v.validateSyncRequest(ctx, *value, fields...)

	case models.SyncResponse:
		return v.validateSyncResponse(value)
	case *models.SyncResponse:
		return v.validateSyncResponse(*value)

	case models.QueueOperation:
		return v.validateOperation(value, fields...)
	case *models.QueueOperation:
		return v.validateOperation(*value, fields...)

	case models.Record:
		return v.validateRecord(value)
	case *models.Record:
		return v.validateRecord(*value)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, obj)
	}
}

func (v *SyncValidator) validateSyncRequest(_ context.Context, req models.SyncRequest, fields ...string) error {
	if len(req.Tables) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSyncRequest, ErrEmptyTables)
	}
	if req.Since != nil && *req.Since == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSyncRequest, ErrEmptySince)
	}

	if err := v.structure(req, fields...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSyncRequest, err)
	}

	for name, changes := range req.Tables {
		if err := validateTableChanges(name, changes); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSyncRequest, err)
		}
	}

	return nil
}

// validateSyncResponse checks the envelope of a response only. Records are
// checked one by one when they are applied, so a single bad record cannot
// block the cursor.
func (v *SyncValidator) validateSyncResponse(resp models.SyncResponse) error {
	if resp.Cursor == "" {
		return fmt.Errorf("%w: empty cursor", ErrInvalidSyncResponse)
	}
	for name := range resp.Changes {
		if !tableNamePattern.MatchString(name) {
			return fmt.Errorf("%w: %w %q", ErrInvalidSyncResponse, ErrInvalidTableName, name)
		}
	}
	return nil
}

func (v *SyncValidator) validateOperation(op models.QueueOperation, fields ...string) error {
	if err := v.structure(op, fields...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return nil
}

func (v *SyncValidator) validateRecord(r models.Record) error {
	if !tableNamePattern.MatchString(r.Table) {
		return fmt.Errorf("%w: %w %q", ErrInvalidRecord, ErrInvalidTableName, r.Table)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	return nil
}

// structure runs tag validation, restricted to fields when given.
func (v *SyncValidator) structure(obj any, fields ...string) error {
	if len(fields) > 0 {
		return v.validate.StructPartial(obj, fields...)
	}
	return v.validate.Struct(obj)
}

func validateTableChanges(name string, changes models.TableChanges) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w %q", ErrInvalidTableName, name)
	}
	for i, upsert := range changes.Upserts {
		id, ok := upsert["id"].(string)
		if !ok || id == "" {
			return fmt.Errorf("%w: %s.upserts[%d]", ErrUpsertWithoutID, name, i)
		}
	}
	for i, id := range changes.Deletes {
		if id == "" {
			return fmt.Errorf("%w: %s.deletes[%d] is empty", ErrInvalidSyncRequest, name, i)
		}
	}
	return nil
}
