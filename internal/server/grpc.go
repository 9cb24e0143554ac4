package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/MKhiriev/repcue-sync/internal/config"
	myGRPC "github.com/MKhiriev/repcue-sync/internal/handler/grpc"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/rpc"
)

type grpcServer struct {
	server   *grpc.Server
	listener net.Listener
	logger   *logger.Logger
}

func newGRPCServer(handler *myGRPC.Handler, cfg config.ServerConfig, logger *logger.Logger) (*grpcServer, error) {
	listener, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", errListen, cfg.GRPCAddress, err)
	}

	s := grpc.NewServer(
		grpc.ForceServerCodec(rpc.JSONCodec{}),
		grpc.ChainUnaryInterceptor(handler.UnaryInterceptors()...),
	)
	rpc.RegisterSyncServer(s, handler)

	return &grpcServer{
		server:   s,
		listener: listener,
		logger:   logger,
	}, nil
}

func (g *grpcServer) serve() error {
	g.logger.Info().Str("addr", g.listener.Addr().String()).Msg("gRPC server listening")
	if err := g.server.Serve(g.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}
	return nil
}

// shutdown waits for in-flight calls until ctx expires, then stops hard.
func (g *grpcServer) shutdown(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		g.logger.Warn().Str("func", "grpcServer.shutdown").Msg("graceful stop timed out")
		g.server.Stop()
	}
}
