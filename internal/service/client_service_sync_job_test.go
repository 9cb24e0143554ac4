// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/models"
)

// spyOrchestrator считает вызовы Sync и HandleNetworkChange.
type spyOrchestrator struct {
	SyncOrchestrator

	syncs          atomic.Int64
	networkChanges atomic.Int64
	lastOnline     atomic.Bool
}

func (s *spyOrchestrator) Sync(_ context.Context, _ bool) models.SyncResult {
	s.syncs.Add(1)
	return models.SyncResult{Success: true, Errors: []string{}}
}

func (s *spyOrchestrator) HandleNetworkChange(_ context.Context, online bool) (models.SyncResult, bool) {
	s.networkChanges.Add(1)
	s.lastOnline.Store(online)
	if !online {
		return models.SyncResult{}, false
	}
	s.syncs.Add(1)
	return models.SyncResult{Success: true, Errors: []string{}}, true
}

// switchableAuth публикует смену состояния авторизации по требованию.
type switchableAuth struct {
	fakeAuth
	changes *capability.Broadcaster[capability.AuthState]
}

func newSwitchableAuth(owner string) *switchableAuth {
	return &switchableAuth{fakeAuth: fakeAuth{owner: owner}, changes: capability.NewBroadcaster[capability.AuthState]()}
}

func (a *switchableAuth) Subscribe() (<-chan capability.AuthState, func()) {
	return a.changes.Subscribe()
}

// spyQueue считает вызовы Drain.
type spyQueue struct {
	RetryQueue

	drains atomic.Int64
	err    error
}

func (q *spyQueue) Drain(_ context.Context, _ adapter.OperationSender, _ int) (DrainResult, error) {
	q.drains.Add(1)
	return DrainResult{}, q.err
}

type nopSender struct{}

func (nopSender) Send(context.Context, models.QueueOperation) error { return nil }

func fastWorkers() config.ClientWorkers {
	return config.ClientWorkers{SyncInterval: 10 * time.Millisecond, QueueDrainInterval: 10 * time.Millisecond}
}

// ── NewClientSyncJob ─────────────────────────────────────────────────────────

func TestNewClientSyncJob_ReturnsInterface(t *testing.T) {
	job := NewClientSyncJob(&spyOrchestrator{}, nil, nil, nil, nil, config.ClientWorkers{}, 0)
	require.NotNil(t, job)

	var _ ClientSyncJob = job
}

// ── Start / Stop ─────────────────────────────────────────────────────────────

func TestClientSyncJob_Start_CallsSync(t *testing.T) {
	spy := &spyOrchestrator{}
	job := NewClientSyncJob(spy, nil, nil, nil, nil, fastWorkers(), 0)

	// Интервал 10ms: за 55ms должно быть ~5 тиков
	job.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.syncs.Load()
	assert.GreaterOrEqual(t, got, int64(3), "Sync должен быть вызван несколько раз, вызвано: %d", got)
}

func TestClientSyncJob_Stop_StopsGoroutines(t *testing.T) {
	spy := &spyOrchestrator{}
	queue := &spyQueue{}
	job := NewClientSyncJob(spy, queue, nopSender{}, capability.NewStaticNetwork(true), nil, fastWorkers(), 10)

	job.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	syncsAfterStop, drainsAfterStop := spy.syncs.Load(), queue.drains.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, syncsAfterStop, spy.syncs.Load(), "после Stop новых вызовов быть не должно")
	assert.Equal(t, drainsAfterStop, queue.drains.Load())
}

func TestClientSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&spyOrchestrator{}, nil, nil, nil, nil, config.ClientWorkers{}, 0)

	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_DoubleStop_NoPanic(t *testing.T) {
	job := NewClientSyncJob(&spyOrchestrator{}, nil, nil, nil, nil, fastWorkers(), 0)

	job.Start(context.Background())
	job.Stop()

	assert.NotPanics(t, func() { job.Stop() })
}

func TestClientSyncJob_Start_DefaultIntervals(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ClientWorkers
	}{
		{name: "zero", cfg: config.ClientWorkers{}},
		{name: "negative", cfg: config.ClientWorkers{SyncInterval: -time.Second, QueueDrainInterval: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyOrchestrator{}
			queue := &spyQueue{}
			job := NewClientSyncJob(spy, queue, nopSender{}, nil, nil, tt.cfg, 0)

			// дефолтные интервалы в минутах, за 20ms вызовов нет
			job.Start(context.Background())
			time.Sleep(20 * time.Millisecond)
			job.Stop()

			assert.Zero(t, spy.syncs.Load())
			assert.Zero(t, queue.drains.Load())
		})
	}
}

func TestClientSyncJob_Restart_StopsPrevious(t *testing.T) {
	spy := &spyOrchestrator{}
	job := NewClientSyncJob(spy, nil, nil, nil, nil, fastWorkers(), 0)
	ctx := context.Background()

	job.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	callsBefore := spy.syncs.Load()
	assert.Greater(t, callsBefore, int64(0))

	// Start повторно на том же job: внутри вызовет Stop()
	job.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	assert.Greater(t, spy.syncs.Load(), callsBefore, "второй Start должен продолжить генерировать вызовы")
}

func TestClientSyncJob_ContextCancel_StopsJob(t *testing.T) {
	job := NewClientSyncJob(&spyOrchestrator{}, &spyQueue{}, nopSender{}, nil, nil, fastWorkers(), 0)
	ctx, cancel := context.WithCancel(context.Background())

	job.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop завис после отмены контекста")
	}
}

// ── Drain ────────────────────────────────────────────────────────────────────

func TestClientSyncJob_DrainsWhenOnline(t *testing.T) {
	queue := &spyQueue{err: assert.AnError}
	job := NewClientSyncJob(&spyOrchestrator{}, queue, nopSender{}, capability.NewStaticNetwork(true), nil, fastWorkers(), 10)

	// ошибки дренажа не останавливают джоб
	job.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	assert.GreaterOrEqual(t, queue.drains.Load(), int64(3))
}

func TestClientSyncJob_SkipsDrainWhenOffline(t *testing.T) {
	queue := &spyQueue{}
	job := NewClientSyncJob(&spyOrchestrator{}, queue, nopSender{}, capability.NewStaticNetwork(false), nil, fastWorkers(), 10)

	job.Start(context.Background())
	time.Sleep(40 * time.Millisecond)
	job.Stop()

	assert.Zero(t, queue.drains.Load())
}

// ── Network transitions ──────────────────────────────────────────────────────

func TestClientSyncJob_NetworkTransitionTriggersSyncAndDrain(t *testing.T) {
	spy := &spyOrchestrator{}
	queue := &spyQueue{}
	network := capability.NewStaticNetwork(false)
	cfg := config.ClientWorkers{SyncInterval: time.Hour, QueueDrainInterval: time.Hour}
	job := NewClientSyncJob(spy, queue, nopSender{}, network, nil, cfg, 10)

	job.Start(context.Background())
	defer job.Stop()

	// ждём подписку sync-цикла
	time.Sleep(20 * time.Millisecond)
	network.SetOnline(true)

	assert.Eventually(t, func() bool {
		return spy.networkChanges.Load() == 1 && queue.drains.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, spy.lastOnline.Load())
	assert.Equal(t, int64(1), spy.syncs.Load())

	network.SetOnline(false)
	assert.Eventually(t, func() bool { return spy.networkChanges.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, spy.lastOnline.Load())
	assert.Equal(t, int64(1), queue.drains.Load())
}

// ── Auth transitions ─────────────────────────────────────────────────────────

func TestClientSyncJob_LoginTriggersSyncAndDrain(t *testing.T) {
	spy := &spyOrchestrator{}
	queue := &spyQueue{}
	auth := newSwitchableAuth("")
	cfg := config.ClientWorkers{SyncInterval: time.Hour, QueueDrainInterval: time.Hour}
	job := NewClientSyncJob(spy, queue, nopSender{}, capability.NewStaticNetwork(true), auth, cfg, 10)

	job.Start(context.Background())
	defer job.Stop()

	time.Sleep(20 * time.Millisecond)
	auth.changes.Publish(capability.AuthState{Authenticated: true, OwnerID: "user-1"})

	assert.Eventually(t, func() bool {
		return spy.syncs.Load() == 1 && queue.drains.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// повторный логин того же пользователя и логаут не запускают синк
	auth.changes.Publish(capability.AuthState{Authenticated: true, OwnerID: "user-1"})
	auth.changes.Publish(capability.AuthState{})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(1), spy.syncs.Load())

	auth.changes.Publish(capability.AuthState{Authenticated: true, OwnerID: "user-2"})
	assert.Eventually(t, func() bool { return spy.syncs.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestClientSyncJob_AlreadyAuthenticatedOwnerIsNotATransition(t *testing.T) {
	spy := &spyOrchestrator{}
	auth := newSwitchableAuth("user-1")
	cfg := config.ClientWorkers{SyncInterval: time.Hour, QueueDrainInterval: time.Hour}
	job := NewClientSyncJob(spy, nil, nil, nil, auth, cfg, 0)

	job.Start(context.Background())
	defer job.Stop()

	time.Sleep(20 * time.Millisecond)
	auth.changes.Publish(capability.AuthState{Authenticated: true, OwnerID: "user-1"})
	time.Sleep(30 * time.Millisecond)

	assert.Zero(t, spy.syncs.Load())
}
