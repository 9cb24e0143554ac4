package tui

import (
	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/models"
)

type statusMsg models.SyncStatus

type syncDoneMsg struct {
	result models.SyncResult
}

type drainDoneMsg struct {
	result service.DrainResult
	err    error
}

type copiedMsg struct {
	err error
}

type refreshMsg struct{}
