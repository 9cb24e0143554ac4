package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
)

type remoteKey struct {
	owner, table, id string
}

func keyOf(e RemoteEntry) remoteKey {
	return remoteKey{owner: e.OwnerID, table: e.Table, id: e.Meta.ID}
}

// memoryRemoteStore keeps the remote records in process memory. A single
// mutex is held for the whole unit of work.
type memoryRemoteStore struct {
	mu      sync.Mutex
	seq     int64
	entries map[remoteKey]RemoteEntry
	applied map[string]struct{}
}

// NewMemoryRemoteStore returns an empty in-memory [RemoteStore].
func NewMemoryRemoteStore() RemoteStore {
	return &memoryRemoteStore{
		entries: make(map[remoteKey]RemoteEntry),
		applied: make(map[string]struct{}),
	}
}

func (m *memoryRemoteStore) Tx(ctx context.Context, fn func(ctx context.Context, tx RemoteTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryRemoteTx{
		store:   m,
		seq:     m.seq,
		puts:    make(map[remoteKey]RemoteEntry),
		applied: make(map[string]struct{}),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	// commit
	m.seq = tx.seq
	maps.Copy(m.entries, tx.puts)
	maps.Copy(m.applied, tx.applied)
	return nil
}

// memoryRemoteTx stages writes until the unit of work succeeds.
type memoryRemoteTx struct {
	store   *memoryRemoteStore
	seq     int64
	puts    map[remoteKey]RemoteEntry
	applied map[string]struct{}
}

func (t *memoryRemoteTx) Get(_ context.Context, ownerID, table, id string) (RemoteEntry, error) {
	k := remoteKey{owner: ownerID, table: table, id: id}
	e, ok := t.puts[k]
	if !ok {
		if e, ok = t.store.entries[k]; !ok {
			return RemoteEntry{}, ErrRemoteEntryNotFound
		}
	}
	e.Wire = maps.Clone(e.Wire)
	return e, nil
}

func (t *memoryRemoteTx) Put(_ context.Context, e RemoteEntry) (RemoteEntry, error) {
	t.seq++
	e.Seq = t.seq
	e.Wire = maps.Clone(e.Wire)
	t.puts[keyOf(e)] = e
	return e, nil
}

func (t *memoryRemoteTx) ChangesSince(_ context.Context, ownerID string, since int64) ([]RemoteEntry, error) {
	merged := make(map[remoteKey]RemoteEntry)
	for k, e := range t.store.entries {
		if k.owner == ownerID {
			merged[k] = e
		}
	}
	for k, e := range t.puts {
		if k.owner == ownerID {
			merged[k] = e
		}
	}

	out := make([]RemoteEntry, 0, len(merged))
	for _, e := range merged {
		if e.Seq > since {
			e.Wire = maps.Clone(e.Wire)
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b RemoteEntry) int {
		return cmp.Or(cmp.Compare(a.Table, b.Table), cmp.Compare(a.Meta.ID, b.Meta.ID))
	})
	return out, nil
}

func (t *memoryRemoteTx) Cursor(context.Context) (int64, error) {
	return t.seq, nil
}

func (t *memoryRemoteTx) MarkApplied(_ context.Context, opID string) (bool, error) {
	if _, ok := t.store.applied[opID]; ok {
		return false, nil
	}
	if _, ok := t.applied[opID]; ok {
		return false, nil
	}
	t.applied[opID] = struct{}{}
	return true, nil
}
