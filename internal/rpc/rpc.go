// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package rpc describes the gRPC flavour of the sync protocol. Messages are
// the same JSON documents as on the HTTP endpoint, carried by a JSON codec,
// so no generated protobuf code is involved.
package rpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"

	"github.com/MKhiriev/repcue-sync/models"
)

const (
	// ServiceName is the fully-qualified gRPC service name.
	ServiceName = "repcue.sync.v1.Sync"

	// SyncMethod is the full method name of the sync round trip.
	SyncMethod = "/" + ServiceName + "/Sync"

	// Metadata keys.
	MetadataAuthorization = "authorization"
	MetadataDeviceID      = "x-device-id"
)

// JSONCodec marshals gRPC messages as JSON.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONCodec) Name() string {
	return "json"
}

// SyncServer is implemented by the remote side of the gRPC sync method.
type SyncServer interface {
	Sync(ctx context.Context, req *models.SyncRequest) (*models.SyncResponse, error)
}

// ServiceDesc registers a [SyncServer] on a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Sync",
			Handler:    syncHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "repcue/sync/v1/sync.json",
}

// RegisterSyncServer registers srv on s.
func RegisterSyncServer(s grpc.ServiceRegistrar, srv SyncServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func syncHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(models.SyncRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SyncServer).Sync(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SyncMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SyncServer).Sync(ctx, req.(*models.SyncRequest))
	}
	return interceptor(ctx, in, info, handler)
}
