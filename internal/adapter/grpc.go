// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/rpc"
	"github.com/MKhiriev/repcue-sync/models"
)

// GRPCOptions configures a gRPC sync transport.
type GRPCOptions struct {
	Name    string
	Address string
	Timeout time.Duration
	Tokens  TokenSource
	// DialOptions are appended to the defaults (insecure credentials).
	DialOptions []grpc.DialOption
}

type grpcTransport struct {
	name    string
	conn    *grpc.ClientConn
	timeout time.Duration
	tokens  TokenSource
}

// NewGRPCTransport returns a [SyncTransport] invoking [rpc.SyncMethod] with
// the JSON codec. The connection is established lazily by grpc; the returned
// closer releases it.
func NewGRPCTransport(opts GRPCOptions) (SyncTransport, func() error, error) {
	if opts.Address == "" {
		return nil, nil, errors.New("grpc transport: empty address")
	}
	name := opts.Name
	if name == "" {
		name = "grpc"
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rpc.JSONCodec{})),
	}, opts.DialOptions...)

	conn, err := grpc.NewClient(opts.Address, dialOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s transport: %w", name, err)
	}

	t := &grpcTransport{
		name:    name,
		conn:    conn,
		timeout: opts.Timeout,
		tokens:  opts.Tokens,
	}
	return t, conn.Close, nil
}

func (t *grpcTransport) CallSync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	md := metadata.MD{}
	if req.ClientInfo.DeviceID != "" {
		md.Set(rpc.MetadataDeviceID, req.ClientInfo.DeviceID)
	}
	if t.tokens != nil {
		if token := t.tokens.AccessToken(); token != "" {
			md.Set(rpc.MetadataAuthorization, "Bearer "+token)
		}
	}
	ctx = metadata.NewOutgoingContext(ctx, md)

	var out models.SyncResponse
	if err := t.conn.Invoke(ctx, rpc.SyncMethod, &req, &out); err != nil {
		te := mapGRPCError(t.name, err)
		log.Err(err).Str("func", "grpcTransport.CallSync").Str("transport", t.name).
			Str("kind", string(te.Kind)).Msg("sync call failed")
		return models.SyncResponse{}, te
	}

	return out, nil
}
