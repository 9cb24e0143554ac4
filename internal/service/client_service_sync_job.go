package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/repcue-sync/internal/adapter"
	"github.com/MKhiriev/repcue-sync/internal/capability"
	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/logger"
)

type clientSyncJob struct {
	orchestrator SyncOrchestrator
	queue        RetryQueue
	sender       adapter.OperationSender
	network      capability.Network
	auth         capability.Auth
	cfg          config.ClientWorkers
	drainBatch   int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncJob creates a job that runs sync passes on a ticker, on every
// transition to online and on every login, and drains the retry queue on its
// own ticker. The job is idle until Start is called. queue and sender may be
// nil, in which case no drain loop runs. network and auth may be nil.
func NewClientSyncJob(
	orchestrator SyncOrchestrator,
	queue RetryQueue,
	sender adapter.OperationSender,
	network capability.Network,
	auth capability.Auth,
	cfg config.ClientWorkers,
	drainBatch int,
) ClientSyncJob {
	return &clientSyncJob{
		orchestrator: orchestrator,
		queue:        queue,
		sender:       sender,
		network:      network,
		auth:         auth,
		cfg:          cfg,
		drainBatch:   drainBatch,
	}
}

// Start implements ClientSyncJob. It stops any previously running job, then
// launches the sync loop and, when a queue is configured, the drain loop.
// Non-positive intervals default to 5 minutes for sync and 30 seconds for
// the drain.
func (j *clientSyncJob) Start(ctx context.Context) {
	syncEvery := j.cfg.SyncInterval
	if syncEvery <= 0 {
		syncEvery = 5 * time.Minute
	}
	drainEvery := j.cfg.QueueDrainInterval
	if drainEvery <= 0 {
		drainEvery = 30 * time.Second
	}

	withDrain := j.queue != nil && j.sender != nil

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	if withDrain {
		j.wg.Add(1)
	}
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		j.syncLoop(jobCtx, syncEvery)
	}()

	if withDrain {
		go func() {
			defer j.wg.Done()
			j.drainLoop(jobCtx, drainEvery)
		}()
	}
}

// Stop implements ClientSyncJob. It cancels the background goroutines'
// context and blocks until they have fully exited. Safe to call when the job
// is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *clientSyncJob) syncLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	var (
		changes     <-chan bool
		unsubscribe = func() {}
	)
	if j.network != nil {
		changes, unsubscribe = j.network.Subscribe()
	}
	defer unsubscribe()

	var (
		logins       <-chan capability.AuthState
		unsubscribeA = func() {}
		owner        string
	)
	if j.auth != nil {
		logins, unsubscribeA = j.auth.Subscribe()
		if j.auth.IsAuthenticated() {
			owner = j.auth.OwnerID()
		}
	}
	defer unsubscribeA()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = j.orchestrator.Sync(ctx, false)
		case online, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if _, ran := j.orchestrator.HandleNetworkChange(ctx, online); ran {
				j.drain(ctx)
			}
		case state, ok := <-logins:
			if !ok {
				logins = nil
				continue
			}
			if !state.Authenticated {
				owner = ""
				continue
			}
			// a repeated login of the same user is not a transition
			if state.OwnerID == owner {
				continue
			}
			owner = state.OwnerID
			logger.FromContext(ctx).Info().Str("func", "clientSyncJob.syncLoop").
				Msg("user authenticated, starting sync")
			_ = j.orchestrator.Sync(ctx, false)
			j.drain(ctx)
		}
	}
}

func (j *clientSyncJob) drainLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.drain(ctx)
		}
	}
}

func (j *clientSyncJob) drain(ctx context.Context) {
	if j.queue == nil || j.sender == nil {
		return
	}
	if j.network != nil && !j.network.IsOnline() {
		return
	}

	log := logger.FromContext(ctx)
	res, err := j.queue.Drain(ctx, j.sender, j.drainBatch)
	switch {
	case errors.Is(err, ErrDrainInProgress), errors.Is(err, context.Canceled):
	case err != nil:
		log.Err(err).Str("func", "clientSyncJob.drain").Msg("error draining retry queue")
	case res.Sent+res.Failed+res.Dropped > 0:
		log.Info().Str("func", "clientSyncJob.drain").Int("sent", res.Sent).Int("failed", res.Failed).
			Int("dropped", res.Dropped).Msg("retry queue drained")
	}
}
