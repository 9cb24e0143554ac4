// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer between the sync engine and
// the remote sync endpoint.
//
// The primary abstraction is [SyncTransport], which performs one sync round
// trip. The package ships an HTTP implementation (resty) and a gRPC
// implementation (JSON codec), and a wrapper that validates requests before
// any network call and retries once on a secondary path when the primary one
// fails with an infrastructure-level error.
//
// Every failure is reported as a [*TransportError] whose Kind drives the
// fallback decision. Callers match kinds with [errors.Is] against the
// sentinel values ([ErrEmptyBody], [ErrAuth], ...).
package adapter

import (
	"context"

	"github.com/MKhiriev/repcue-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// SyncTransport executes the sync round trip: push local changes, pull
// remote changes since the cursor.
type SyncTransport interface {
	CallSync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error)
}

// OperationSender replays a single retry queue operation against the
// remote store.
type OperationSender interface {
	Send(ctx context.Context, op models.QueueOperation) error
}

// HealthChecker reports whether the remote endpoint is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// TokenIssuer obtains an access token for subject from the remote.
type TokenIssuer interface {
	IssueToken(ctx context.Context, subject string) (string, error)
}

// TokenSource supplies the current access token; empty means anonymous.
type TokenSource interface {
	AccessToken() string
}
