package server

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/handler"
	"github.com/MKhiriev/repcue-sync/internal/logger"
)

type server struct {
	httpServer *httpServer
	gRPCServer *grpcServer
	logger     *logger.Logger
}

// NewServer binds the listeners of every transport that has both an address
// and a handler. At least one must be configured.
func NewServer(handlers *handler.Handlers, cfg config.ServerConfig, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	s := &server{logger: logger}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		httpSrv, err := newHTTPServer(handlers.HTTP.Init(), cfg, logger)
		if err != nil {
			return nil, err
		}
		s.httpServer = httpSrv
	}
	if cfg.GRPCAddress != "" && handlers.GRPC != nil {
		grpcSrv, err := newGRPCServer(handlers.GRPC, cfg, logger)
		if err != nil {
			s.closeListeners()
			return nil, err
		}
		s.gRPCServer = grpcSrv
	}

	if s.httpServer == nil && s.gRPCServer == nil {
		return nil, errNoSyncEndpoints
	}

	return s, nil
}

func (s *server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.httpServer != nil {
		g.Go(s.httpServer.serve)
	}
	if s.gRPCServer != nil {
		g.Go(s.gRPCServer.serve)
	}

	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})

	err := g.Wait()
	if err != nil {
		s.logger.Err(err).Str("func", "server.Run").Msg("server stopped with error")
		return err
	}

	s.logger.Info().Msg("server shutdown gracefully")
	return nil
}

func (s *server) Addrs() map[string]string {
	addrs := make(map[string]string, 2)
	if s.httpServer != nil {
		addrs["http"] = s.httpServer.listener.Addr().String()
	}
	if s.gRPCServer != nil {
		addrs["grpc"] = s.gRPCServer.listener.Addr().String()
	}
	return addrs
}

func (s *server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		s.httpServer.shutdown(ctx)
	}
	if s.gRPCServer != nil {
		s.gRPCServer.shutdown(ctx)
	}
}

func (s *server) closeListeners() {
	var errs []error
	if s.httpServer != nil {
		errs = append(errs, s.httpServer.listener.Close())
	}
	if s.gRPCServer != nil {
		errs = append(errs, s.gRPCServer.listener.Close())
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Err(err).Str("func", "server.closeListeners").Msg("close listeners")
	}
}
