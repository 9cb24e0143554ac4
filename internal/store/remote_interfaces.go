// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/repcue-sync/models"
)

// RemoteEntry is one record as held by the development remote store.
type RemoteEntry struct {
	OwnerID string
	Table   string
	Meta    models.SyncMetadata
	// Wire is the record as served to clients.
	Wire models.WireRecord
	// Seq is the value of the global write sequence at the last write.
	Seq int64
	// Device wrote the current version; empty for retry queue operations.
	Device string
}

// RemoteStore runs units of work against the remote records. Writers are
// serialised: the sequence grows by one for every Put in commit order.
type RemoteStore interface {
	// Tx runs fn atomically. Nothing fn wrote is kept when it returns an
	// error. fn may run more than once.
	Tx(ctx context.Context, fn func(ctx context.Context, tx RemoteTx) error) error
}

// RemoteTx is the view of the remote store inside [RemoteStore.Tx].
type RemoteTx interface {
	// Get returns [ErrRemoteEntryNotFound] when the record was never written.
	Get(ctx context.Context, ownerID, table, id string) (RemoteEntry, error)
	// Put stores e under the next sequence value and returns it with Seq set.
	Put(ctx context.Context, e RemoteEntry) (RemoteEntry, error)
	// ChangesSince lists the owner's entries written after since, ordered by
	// table and id.
	ChangesSince(ctx context.Context, ownerID string, since int64) ([]RemoteEntry, error)
	// Cursor is the current sequence value.
	Cursor(ctx context.Context) (int64, error)
	// MarkApplied records a retry queue operation id and reports false when
	// it was applied before.
	MarkApplied(ctx context.Context, opID string) (bool, error)
}
