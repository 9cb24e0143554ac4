// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package capability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/logger"
)

// ProbeNetwork derives connectivity from periodic health checks against the
// remote endpoint. Only transitions are published.
type ProbeNetwork struct {
	checker  adapter.HealthChecker
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	online  atomic.Bool
	changes *Broadcaster[bool]

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProbeNetwork returns a monitor starting in the initial state.
func NewProbeNetwork(checker adapter.HealthChecker, interval, timeout time.Duration, initial bool) *ProbeNetwork {
	p := &ProbeNetwork{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		changes:  NewBroadcaster[bool](),
	}
	p.online.Store(initial)
	return p
}

func (p *ProbeNetwork) IsOnline() bool {
	return p.online.Load()
}

func (p *ProbeNetwork) Subscribe() (<-chan bool, func()) {
	return p.changes.Subscribe()
}

// Probe runs a single health check and returns the resulting state.
func (p *ProbeNetwork) Probe(ctx context.Context) bool {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.checker.Ping(ctx)
	online := err == nil

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.online.Swap(online) != online {
		logger.FromContext(ctx).Info().Str("func", "ProbeNetwork.Probe").Bool("online", online).
			AnErr("cause", err).Msg("network state changed")
		p.changes.Publish(online)
	}
	return online
}

// Start probes immediately and then every interval until Stop.
func (p *ProbeNetwork) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.Probe(ctx)
		for {
			select {
			case <-ticker.C:
				p.Probe(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts probing and closes all subscriptions.
func (p *ProbeNetwork) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.changes.Close()
}

// StaticNetwork is switched by hand.
type StaticNetwork struct {
	mu      sync.Mutex
	online  atomic.Bool
	changes *Broadcaster[bool]
}

func NewStaticNetwork(online bool) *StaticNetwork {
	n := &StaticNetwork{changes: NewBroadcaster[bool]()}
	n.online.Store(online)
	return n
}

func (n *StaticNetwork) IsOnline() bool {
	return n.online.Load()
}

func (n *StaticNetwork) Subscribe() (<-chan bool, func()) {
	return n.changes.Subscribe()
}

// SetOnline changes the state and publishes it if it differs.
func (n *StaticNetwork) SetOnline(online bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.online.Swap(online) != online {
		n.changes.Publish(online)
	}
}
