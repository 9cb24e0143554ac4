// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncmeta

import (
	"time"

	"github.com/MKhiriev/repcue-sync/models"
)

// Create returns the envelope of a freshly created record: version 1, dirty,
// pending upsert, both timestamps set to now.
func Create(id string, owner *string, now time.Time) models.SyncMetadata {
	now = now.UTC()
	return models.SyncMetadata{
		ID:        id,
		OwnerID:   copyOwner(owner),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
		Dirty:     models.Pending,
		Op:        models.OpUpsert,
	}
}

// Update returns the envelope after a local modification. A nil owner keeps
// the current one; an unclaimed record adopts a non-nil owner.
func Update(current models.SyncMetadata, owner *string, now time.Time) models.SyncMetadata {
	next := bump(current, owner, now)
	next.Op = models.OpUpsert
	return next
}

// MarkDeleted returns the tombstoned envelope. The record keeps its id and
// stays in the local store until the deletion is replicated.
func MarkDeleted(current models.SyncMetadata, owner *string, now time.Time) models.SyncMetadata {
	next := bump(current, owner, now)
	next.Deleted = true
	next.Op = models.OpDelete
	return next
}

// Restore returns the envelope of a tombstoned record that is written
// again. The version keeps growing so replicas accept the revival.
func Restore(current models.SyncMetadata, owner *string, now time.Time) models.SyncMetadata {
	next := bump(current, owner, now)
	next.Deleted = false
	next.Op = models.OpUpsert
	return next
}

// MarkSynced clears the dirty flag after the remote store acknowledged the
// current version. Version and timestamps are left untouched.
func MarkSynced(current models.SyncMetadata, at time.Time) models.SyncMetadata {
	at = at.UTC()
	current.Dirty = models.Clean
	current.SyncedAt = &at
	return current
}

// ClaimOwner assigns owner to an unclaimed record. Claiming a record that
// already belongs to owner is a no-op; claiming a record that belongs to
// someone else fails. The owner never reverts to unclaimed.
func ClaimOwner(current models.SyncMetadata, owner string) (models.SyncMetadata, error) {
	if owner == "" {
		return current, ErrEmptyOwner
	}
	if current.IsOwned() {
		if *current.OwnerID == owner {
			return current, nil
		}
		return current, ErrOwnerAlreadyClaimed
	}
	current.OwnerID = &owner
	return current, nil
}

// ResolveConflict is the two-way last-writer-wins rule: the side with the
// newer UpdatedAt wins; on an exact tie the deleted side wins. When neither
// side is deleted on a tie, remote wins.
//
// It reports whether the remote envelope won.
func ResolveConflict(local, remote models.SyncMetadata) (winner models.SyncMetadata, remoteWins bool) {
	switch {
	case remote.UpdatedAt.After(local.UpdatedAt):
		return remote, true
	case local.UpdatedAt.After(remote.UpdatedAt):
		return local, false
	case local.Deleted && !remote.Deleted:
		return local, false
	default:
		return remote, true
	}
}

// AcceptRemote returns the envelope to persist when a remote version
// replaces local. The version never decreases; a remote record without an
// owner keeps the local one. The result is clean and stamped with at.
func AcceptRemote(local, remote models.SyncMetadata, at time.Time) models.SyncMetadata {
	next := remote
	if local.Version > next.Version {
		next.Version = local.Version
	}
	if next.IsOwned() {
		next.OwnerID = copyOwner(next.OwnerID)
	} else {
		next.OwnerID = copyOwner(local.OwnerID)
	}
	next.Op = models.OpUpsert
	if next.Deleted {
		next.Op = models.OpDelete
	}
	return MarkSynced(next, at)
}

// Tombstone applies a deletion replicated from the remote store. Unlike
// MarkDeleted it keeps the version and leaves the record clean.
func Tombstone(current models.SyncMetadata, at time.Time) models.SyncMetadata {
	current.Deleted = true
	current.Op = models.OpDelete
	current.OwnerID = copyOwner(current.OwnerID)
	return MarkSynced(current, at)
}

func bump(current models.SyncMetadata, owner *string, now time.Time) models.SyncMetadata {
	next := current
	next.Version = current.Version + 1
	next.UpdatedAt = now.UTC()
	next.Dirty = models.Pending
	// владелец назначается только один раз
	if owner != nil && *owner != "" && !current.IsOwned() {
		next.OwnerID = copyOwner(owner)
	} else {
		next.OwnerID = copyOwner(current.OwnerID)
	}
	return next
}

func copyOwner(owner *string) *string {
	if owner == nil {
		return nil
	}
	o := *owner
	return &o
}
