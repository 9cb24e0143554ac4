package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/store"
	"github.com/MKhiriev/repcue-sync/models"
)

var (
	t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(2 * time.Minute)
)

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

// newTestStorages поднимает настоящую sqlite базу во временной директории.
func newTestStorages(t *testing.T) *store.ClientStorages {
	t.Helper()

	cfg := config.ClientStorage{DB: config.ClientDB{DSN: filepath.Join(t.TempDir(), "local.db")}}
	s, err := store.NewClientStorages(testContext(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeAuth is a fixed identity.
type fakeAuth struct {
	owner string
}

func (a fakeAuth) IsAuthenticated() bool { return a.owner != "" }
func (a fakeAuth) AccessToken() string   { return "token-" + a.owner }
func (a fakeAuth) OwnerID() string       { return a.owner }
func (a fakeAuth) Subscribe() (<-chan capability.AuthState, func()) {
	return capability.NewBroadcaster[capability.AuthState]().Subscribe()
}

type fakeConsent bool

func (c fakeConsent) HasConsent() bool { return bool(c) }

// seqIDs выдаёт предсказуемые идентификаторы.
type seqIDs struct {
	mu   sync.Mutex
	next int
	pref string
}

func (g *seqIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.pref + string(rune('a'+g.next-1))
}

func dirtyRecord(table, id string, version int64, updatedAt time.Time, fields map[string]any) models.Record {
	return models.Record{
		Table: table,
		SyncMetadata: models.SyncMetadata{
			ID:        id,
			CreatedAt: t0,
			UpdatedAt: updatedAt,
			Version:   version,
			Dirty:     models.Pending,
			Op:        models.OpUpsert,
		},
		Fields: fields,
	}
}

func cleanRecord(table, id string, version int64, updatedAt time.Time, fields map[string]any) models.Record {
	r := dirtyRecord(table, id, version, updatedAt, fields)
	r.Dirty = models.Clean
	synced := updatedAt
	r.SyncedAt = &synced
	return r
}
