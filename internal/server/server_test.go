package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/internal/config"
	"github.com/MKhiriev/repcue-sync/internal/handler"
	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/service"
)

func newTestHandlers(t *testing.T, cfg config.ServerConfig) *handler.Handlers {
	t.Helper()
	h, err := handler.NewHandlers(&service.Services{}, cfg, logger.Nop())
	require.NoError(t, err)
	return h
}

func runServer(t *testing.T, s Server) (cancel func() error) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	return func() error {
		stop()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
			return nil
		}
	}
}

func TestNewServer_HTTPOnly(t *testing.T) {
	cfg := config.ServerConfig{HTTPAddress: "127.0.0.1:0"}

	s, err := NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())
	require.NoError(t, err)

	addrs := s.Addrs()
	assert.Contains(t, addrs, "http")
	assert.NotContains(t, addrs, "grpc")

	stop := runServer(t, s)

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addrs["http"] + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, stop())
}

func TestNewServer_HTTPAndGRPC(t *testing.T) {
	cfg := config.ServerConfig{HTTPAddress: "127.0.0.1:0", GRPCAddress: "127.0.0.1:0"}

	s, err := NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())
	require.NoError(t, err)

	addrs := s.Addrs()
	require.Contains(t, addrs, "grpc")

	stop := runServer(t, s)

	require.Eventually(t, func() bool {
		conn, dialErr := net.Dial("tcp", addrs["grpc"])
		if dialErr != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	assert.NoError(t, stop())
}

func TestNewServer_ListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	// HTTP-листенер должен закрыться, если gRPC не смог занять адрес
	cfg := config.ServerConfig{HTTPAddress: "127.0.0.1:0", GRPCAddress: busy.Addr().String()}

	s, err := NewServer(newTestHandlers(t, cfg), cfg, logger.Nop())
	assert.ErrorIs(t, err, errListen)
	assert.Nil(t, s)
}

func TestNewServer_NoServers(t *testing.T) {
	s, err := NewServer(&handler.Handlers{}, config.ServerConfig{}, logger.Nop())

	assert.ErrorIs(t, err, errNoSyncEndpoints)
	assert.Nil(t, s)
}
