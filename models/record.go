// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Op is the pending intent of a dirty record.
type Op string

const (
	// OpUpsert marks a record that must be created or replaced remotely.
	OpUpsert Op = "upsert"

	// OpDelete marks a record whose tombstone must be replicated.
	OpDelete Op = "delete"
)

// DirtyFlag tells whether a record carries local changes the remote store
// has not acknowledged yet. It is stored as an integer so the local store
// can index and filter on it.
type DirtyFlag int

const (
	// Clean means the current version was acknowledged by the remote store.
	Clean DirtyFlag = 0

	// Pending means the record waits for transmission.
	Pending DirtyFlag = 1
)

// SyncMetadata is the envelope every syncable record carries next to its
// domain payload. It must only be changed through the syncmeta package.
type SyncMetadata struct {
	// ID is the stable unique identifier of the record.
	ID string `json:"id"`

	// OwnerID is nil while the record is unclaimed (anonymous usage).
	// It is set exactly once, on the first authenticated sync.
	OwnerID *string `json:"owner_id"`

	// CreatedAt is the creation time of the record.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time of the last mutation; used for last-writer-wins.
	UpdatedAt time.Time `json:"updated_at"`

	// Deleted is the tombstone flag. Records are never physically removed
	// while a replica might not have observed the deletion.
	Deleted bool `json:"deleted"`

	// Version grows by exactly one on every local mutation.
	Version int64 `json:"version"`

	// Dirty is Pending from the moment of a local mutation until the remote
	// store acknowledges that version.
	Dirty DirtyFlag `json:"-"`

	// Op is the pending intent while Dirty is Pending.
	Op Op `json:"-"`

	// SyncedAt is the time of the last acknowledgement. Local only.
	SyncedAt *time.Time `json:"-"`
}

// IsDirty reports whether the record waits for transmission.
func (m SyncMetadata) IsDirty() bool {
	return m.Dirty == Pending
}

// IsOwned reports whether the record was claimed by an identity.
func (m SyncMetadata) IsOwned() bool {
	return m.OwnerID != nil && *m.OwnerID != ""
}

// Record is a syncable row of one of the local tables. Fields holds the
// domain payload keyed by local field names; the sync engine treats it as
// opaque apart from the explicit field mapping.
type Record struct {
	SyncMetadata

	// Table is the name of the syncable table the record belongs to.
	Table string `json:"-"`

	// Fields is the domain payload in local naming.
	Fields map[string]any `json:"fields,omitempty"`
}

// Clone returns a deep enough copy of r so that callers can mutate the
// payload map and the owner pointer without touching r.
func (r Record) Clone() Record {
	out := r
	if r.OwnerID != nil {
		owner := *r.OwnerID
		out.OwnerID = &owner
	}
	if r.SyncedAt != nil {
		at := *r.SyncedAt
		out.SyncedAt = &at
	}
	if r.Fields != nil {
		out.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
