// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package tui renders a live view of the sync engine in the terminal.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/models"
)

const defaultRefresh = 5 * time.Second

var ErrNoEngine = errors.New("sync engine is not set")

// Engine is the part of the sync orchestrator the monitor drives.
type Engine interface {
	Sync(ctx context.Context, force bool) models.SyncResult
	Status(ctx context.Context) models.SyncStatus
	OnStatusChange() (<-chan models.SyncStatus, func())
}

// DrainFunc sends due operations of the retry queue.
type DrainFunc func(ctx context.Context) (service.DrainResult, error)

// ProbeFunc refreshes the connectivity state and reports it.
type ProbeFunc func(ctx context.Context) bool

// Deps are the collaborators of the monitor. Drain, Probe and Owner are
// optional.
type Deps struct {
	Engine   Engine
	Drain    DrainFunc
	Probe    ProbeFunc
	Owner    func() string
	DeviceID string
	Refresh  time.Duration
}

type TUI struct {
	deps   Deps
	logger *logger.Logger
}

func New(deps Deps, log *logger.Logger) (*TUI, error) {
	if deps.Engine == nil {
		return nil, ErrNoEngine
	}
	if deps.Refresh <= 0 {
		deps.Refresh = defaultRefresh
	}
	return &TUI{deps: deps, logger: log}, nil
}

// Watch runs the monitor until the user quits or ctx is done.
func (t *TUI) Watch(ctx context.Context) error {
	updates, unsubscribe := t.deps.Engine.OnStatusChange()
	defer unsubscribe()

	model := newWatchModel(ctx, t.deps, updates, clipboard.WriteAll)
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		t.logger.Err(err).Str("func", "tui.Watch").Msg("watch program failed")
		return err
	}
	return nil
}
