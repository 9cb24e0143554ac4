package service

import (
	"context"

	"github.com/MKhiriev/repcue-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/servicemock/service_mock.go -package=servicemock

// RemoteSyncService is the remote side of the sync protocol served by the
// development endpoint.
type RemoteSyncService interface {
	// Sync stores the pushed changes of ownerID and returns every change
	// since req.Since that the requesting device has not written itself.
	Sync(ctx context.Context, ownerID string, req models.SyncRequest) (models.SyncResponse, error)

	// ApplyOperation replays a discrete operation sent by a retry queue.
	// Replaying the same operation id twice is a no-op.
	ApplyOperation(ctx context.Context, ownerID, table string, op models.QueueOperation) error
}

// AuthService issues and verifies the bearer tokens of the development
// endpoint.
type AuthService interface {
	// CreateToken issues a signed token whose subject is ownerID.
	CreateToken(ctx context.Context, ownerID string) (string, error)

	// ParseToken verifies tokenString and returns its subject.
	ParseToken(ctx context.Context, tokenString string) (string, error)
}
