// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/rpc"
	"github.com/MKhiriev/repcue-sync/internal/utils"
)

const metadataTraceID = "x-trace-id"

// UnaryInterceptors returns the interceptor chain of the gRPC server:
// request logger, access log, then authentication.
func (h *Handler) UnaryInterceptors() []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{h.withLogger, h.withAccessLog, h.auth}
}

func (h *Handler) withLogger(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	traceID := first(md, metadataTraceID)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	deviceID := first(md, rpc.MetadataDeviceID)

	l := h.logger.GetChildLogger()
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		c = c.Str("trace_id", traceID)
		if deviceID != "" {
			c = c.Str("device_id", deviceID)
		}
		return c
	})

	_ = grpc.SetHeader(ctx, metadata.Pairs(metadataTraceID, traceID))
	return next(l.WithContext(ctx), req)
}

func (h *Handler) withAccessLog(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := next(ctx, req)

	logger.FromContext(ctx).Info().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Send()
	return resp, err
}

// auth verifies the bearer token of the "authorization" metadata and puts
// the owner and device ids into the context.
func (h *Handler) auth(ctx context.Context, req any, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
	log := logger.FromContext(ctx)

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, toStatus(ErrMissingMetadata)
	}

	tokenString, err := utils.ParseBearerToken(first(md, rpc.MetadataAuthorization))
	if err != nil {
		log.Err(err).Str("func", "*Handler.auth").Send()
		return nil, toStatus(err)
	}

	ownerID, err := h.services.AuthService.ParseToken(ctx, tokenString)
	if err != nil {
		log.Err(err).Str("func", "*Handler.auth").Msg("error occurred during parsing token")
		return nil, toStatus(err)
	}

	ctx = context.WithValue(ctx, utils.OwnerIDCtxKey, ownerID)
	if deviceID := first(md, rpc.MetadataDeviceID); deviceID != "" {
		ctx = context.WithValue(ctx, utils.DeviceIDCtxKey, deviceID)
	}
	return next(ctx, req)
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
