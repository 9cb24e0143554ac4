// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// WireRecord is a record in remote (wire) representation: snake_case keys,
// local-only fields stripped.
type WireRecord map[string]any

// TableChanges carries the upserts and tombstone ids of a single table.
type TableChanges struct {
	// Upserts are full records in wire representation.
	Upserts []WireRecord `json:"upserts" validate:"dive,required"`

	// Deletes are bare identifiers of tombstoned records.
	Deletes []string `json:"deletes" validate:"dive,required"`
}

// IsEmpty reports whether the table carries no changes at all.
func (c TableChanges) IsEmpty() bool {
	return len(c.Upserts) == 0 && len(c.Deletes) == 0
}

// Len returns the number of records carried by the table changes.
func (c TableChanges) Len() int {
	return len(c.Upserts) + len(c.Deletes)
}

// ClientInfo identifies the sending installation.
type ClientInfo struct {
	AppVersion string `json:"appVersion" validate:"required"`
	DeviceID   string `json:"deviceId" validate:"required"`
}

// SyncRequest is the body sent to the remote sync endpoint. Since is omitted
// on the initial full sync.
type SyncRequest struct {
	Since      *string                 `json:"since,omitempty"`
	Tables     map[string]TableChanges `json:"tables" validate:"required,min=1,dive,keys,required,endkeys"`
	ClientInfo ClientInfo              `json:"clientInfo" validate:"required"`
}

// RecordCount returns the number of records pushed by the request.
func (r SyncRequest) RecordCount() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Len()
	}
	return n
}

// SyncResponse is returned by the remote sync endpoint: the changes since
// the supplied cursor and the new cursor.
type SyncResponse struct {
	Changes map[string]TableChanges `json:"changes"`
	Cursor  string                  `json:"cursor"`
}
