// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package syncmeta holds the only functions allowed to mutate the sync
// envelope of a record ([models.SyncMetadata]).
//
// Every local write goes through Create, Update or MarkDeleted, so that:
//   - the version grows by exactly one per mutation and is never reset;
//   - the dirty flag is raised by every mutation and cleared only by
//     MarkSynced;
//   - the owner moves from unclaimed to a concrete identity at most once.
//
// All functions are pure: they take the current envelope by value and return
// a new one. Time is passed in explicitly so callers (and tests) control the
// clock.
package syncmeta
