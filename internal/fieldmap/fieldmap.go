// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package fieldmap converts records between the local representation
// (camelCase domain fields, local-only sync flags) and the wire
// representation (snake_case, no local-only flags).
//
// The conversion is driven by one declarative table per syncable table: a
// list of [Mapping] tuples. The harvester uses [Mapper.ToWire] and the change
// applier uses [Mapper.ToLocal]; neither branches on individual fields.
package fieldmap

import (
	"fmt"
	"time"

	"github.com/MKhiriev/repcue-sync/models"
)

// Wire names of the envelope fields.
const (
	WireID        = "id"
	WireOwnerID   = "owner_id"
	WireCreatedAt = "created_at"
	WireUpdatedAt = "updated_at"
	WireDeleted   = "deleted"
	WireVersion   = "version"
)

// Transform converts a single field value in one direction.
type Transform func(v any) (any, error)

// Mapping is one (local field, wire field, transforms) tuple. Nil transforms
// mean identity.
type Mapping struct {
	LocalField string
	WireField  string
	ToWire     Transform
	ToLocal    Transform
}

// EnvelopeMappings describe how the envelope fields are named locally and on
// the wire. They are shared by every table.
var EnvelopeMappings = []Mapping{
	{LocalField: "id", WireField: WireID},
	{LocalField: "ownerId", WireField: WireOwnerID},
	{LocalField: "createdAt", WireField: WireCreatedAt},
	{LocalField: "updatedAt", WireField: WireUpdatedAt},
	{LocalField: "deleted", WireField: WireDeleted},
	{LocalField: "version", WireField: WireVersion},
}

// localOnly are never sent to the remote store.
var localOnly = map[string]struct{}{
	"dirty":    {},
	"op":       {},
	"syncedAt": {},
}

type tableMapping struct {
	byLocal map[string]Mapping
	byWire  map[string]Mapping
}

// Mapper applies per-table mapping tables.
type Mapper struct {
	tables   map[string]tableMapping
	envelope tableMapping
}

// New builds a Mapper from per-table mapping lists. Tables without an entry
// pass all domain fields through unchanged.
func New(tables map[string][]Mapping) (*Mapper, error) {
	envelope, err := index(EnvelopeMappings)
	if err != nil {
		return nil, err
	}

	m := &Mapper{tables: make(map[string]tableMapping, len(tables)), envelope: envelope}
	for table, mappings := range tables {
		tm, err := index(mappings)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		m.tables[table] = tm
	}
	return m, nil
}

// MustNew is like New but panics on an invalid mapping table.
func MustNew(tables map[string][]Mapping) *Mapper {
	m, err := New(tables)
	if err != nil {
		panic(err)
	}
	return m
}

// Default returns the mapper for the built-in syncable tables.
func Default() *Mapper {
	return MustNew(DefaultTables)
}

// ToWire converts a local record to its wire representation. Local-only
// fields are stripped; envelope fields are rendered from the metadata, never
// from the payload.
func (m *Mapper) ToWire(r models.Record) (models.WireRecord, error) {
	if r.ID == "" {
		return nil, ErrMissingID
	}

	tm := m.tables[r.Table]
	out := make(models.WireRecord, len(r.Fields)+len(EnvelopeMappings))
	for local, v := range r.Fields {
		if _, skip := localOnly[local]; skip {
			continue
		}
		if _, envelope := m.envelope.byLocal[local]; envelope {
			continue
		}

		mapping, ok := tm.byLocal[local]
		if !ok {
			out[local] = v
			continue
		}
		converted, err := apply(mapping.ToWire, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrTransform, r.Table, local, err)
		}
		out[mapping.WireField] = converted
	}

	out[WireID] = r.ID
	if r.OwnerID != nil {
		out[WireOwnerID] = *r.OwnerID
	} else {
		out[WireOwnerID] = nil
	}
	out[WireCreatedAt] = formatTime(r.CreatedAt)
	out[WireUpdatedAt] = formatTime(r.UpdatedAt)
	out[WireDeleted] = r.Deleted
	out[WireVersion] = r.Version

	return out, nil
}

// ToLocal converts a wire record of table back to a local record. The
// returned record is clean: dirty flag, op and syncedAt are left for the
// caller to set through syncmeta.
func (m *Mapper) ToLocal(table string, w models.WireRecord) (models.Record, error) {
	if table == "" {
		return models.Record{}, ErrMissingTable
	}

	meta, err := parseEnvelope(w)
	if err != nil {
		return models.Record{}, fmt.Errorf("table %s: %w", table, err)
	}

	tm := m.tables[table]
	fields := make(map[string]any, len(w))
	for wire, v := range w {
		if _, envelope := m.envelope.byWire[wire]; envelope {
			continue
		}
		mapping, ok := tm.byWire[wire]
		if !ok {
			fields[wire] = v
			continue
		}
		converted, err := apply(mapping.ToLocal, v)
		if err != nil {
			return models.Record{}, fmt.Errorf("%w: %s.%s: %w", ErrTransform, table, wire, err)
		}
		fields[mapping.LocalField] = converted
	}

	meta.Op = models.OpUpsert
	if meta.Deleted {
		meta.Op = models.OpDelete
	}

	return models.Record{SyncMetadata: meta, Table: table, Fields: fields}, nil
}

// WireField returns the wire name of a local domain field of table.
func (m *Mapper) WireField(table, local string) string {
	if mapping, ok := m.tables[table].byLocal[local]; ok {
		return mapping.WireField
	}
	return local
}

func index(mappings []Mapping) (tableMapping, error) {
	tm := tableMapping{
		byLocal: make(map[string]Mapping, len(mappings)),
		byWire:  make(map[string]Mapping, len(mappings)),
	}
	for _, mapping := range mappings {
		if _, dup := tm.byLocal[mapping.LocalField]; dup {
			return tm, fmt.Errorf("%w: local field %s", ErrDuplicateMapping, mapping.LocalField)
		}
		if _, dup := tm.byWire[mapping.WireField]; dup {
			return tm, fmt.Errorf("%w: wire field %s", ErrDuplicateMapping, mapping.WireField)
		}
		tm.byLocal[mapping.LocalField] = mapping
		tm.byWire[mapping.WireField] = mapping
	}
	return tm, nil
}

func apply(t Transform, v any) (any, error) {
	if t == nil {
		return v, nil
	}
	return t(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
