// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncResult is the outcome of one sync pass. A pass may be successful and
// still carry per-record errors.
type SyncResult struct {
	Success         bool     `json:"success"`
	TablesProcessed int      `json:"tablesProcessed"`
	RecordsPushed   int      `json:"recordsPushed"`
	RecordsPulled   int      `json:"recordsPulled"`
	Conflicts       int      `json:"conflicts"`
	Errors          []string `json:"errors"`
	Skipped         bool     `json:"skipped,omitempty"`
}

// AddError appends a per-unit error message to the result.
func (r *SyncResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// SyncStatus is the observable state of the sync engine.
type SyncStatus struct {
	IsOnline       bool       `json:"isOnline"`
	IsSyncing      bool       `json:"isSyncing"`
	LastSyncAt     *time.Time `json:"lastSyncAt,omitempty"`
	LastSuccessAt  *time.Time `json:"lastSuccessAt,omitempty"`
	PendingChanges int        `json:"pendingChanges"`
	Errors         []string   `json:"errors"`
}
