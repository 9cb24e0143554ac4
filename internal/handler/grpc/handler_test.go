package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/mock/servicemock"
	"github.com/MKhiriev/repcue-sync/internal/rpc"
	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/models"
)

type fixture struct {
	conn *grpc.ClientConn
	sync *servicemock.MockRemoteSyncService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	syncSvc := servicemock.NewMockRemoteSyncService(ctrl)
	authSvc := servicemock.NewMockAuthService(ctrl)
	authSvc.EXPECT().ParseToken(gomock.Any(), "good").Return("user-1", nil).AnyTimes()
	authSvc.EXPECT().ParseToken(gomock.Any(), gomock.Not("good")).
		Return("", service.ErrTokenIsExpiredOrInvalid).AnyTimes()

	h := NewHandler(&service.Services{AuthService: authSvc, SyncService: syncSvc}, logger.Nop())

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(
		grpc.ForceServerCodec(rpc.JSONCodec{}),
		grpc.ChainUnaryInterceptor(h.UnaryInterceptors()...),
	)
	rpc.RegisterSyncServer(s, h)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rpc.JSONCodec{})),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{conn: conn, sync: syncSvc}
}

func (f *fixture) call(ctx context.Context, req models.SyncRequest) (models.SyncResponse, metadata.MD, error) {
	var (
		out    models.SyncResponse
		header metadata.MD
	)
	err := f.conn.Invoke(ctx, rpc.SyncMethod, &req, &out, grpc.Header(&header))
	return out, header, err
}

func withAuth(token, device string) context.Context {
	md := metadata.Pairs(rpc.MetadataAuthorization, "Bearer "+token)
	if device != "" {
		md.Set(rpc.MetadataDeviceID, device)
	}
	return metadata.NewOutgoingContext(context.Background(), md)
}

func testRequest() models.SyncRequest {
	return models.SyncRequest{
		Tables: map[string]models.TableChanges{
			models.TableExercises: {Upserts: []models.WireRecord{}, Deletes: []string{}},
		},
		ClientInfo: models.ClientInfo{AppVersion: "1.0.0"},
	}
}

func TestSync_Success(t *testing.T) {
	f := newFixture(t)
	f.sync.EXPECT().Sync(gomock.Any(), "user-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req models.SyncRequest) (models.SyncResponse, error) {
			// устройство берётся из метаданных, если его нет в теле
			assert.Equal(t, "phone", req.ClientInfo.DeviceID)
			return models.SyncResponse{Cursor: "3", Changes: map[string]models.TableChanges{}}, nil
		})

	resp, header, err := f.call(withAuth("good", "phone"), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "3", resp.Cursor)
	assert.NotEmpty(t, header.Get(metadataTraceID))
}

func TestSync_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		ctx        context.Context
		serviceErr error
		wantCode   codes.Code
	}{
		{name: "no metadata", ctx: context.Background(), wantCode: codes.Unauthenticated},
		{name: "bad token", ctx: withAuth("bad", ""), wantCode: codes.Unauthenticated},
		{name: "invalid request", ctx: withAuth("good", ""), serviceErr: service.ErrInvalidSyncRequest, wantCode: codes.InvalidArgument},
		{name: "bad cursor", ctx: withAuth("good", ""), serviceErr: service.ErrInvalidCursor, wantCode: codes.InvalidArgument},
		{name: "unexpected", ctx: withAuth("good", ""), serviceErr: assert.AnError, wantCode: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.serviceErr != nil {
				f.sync.EXPECT().Sync(gomock.Any(), "user-1", gomock.Any()).Return(models.SyncResponse{}, tt.serviceErr)
			}

			_, _, err := f.call(tt.ctx, testRequest())

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestToStatus_HidesInternalErrors(t *testing.T) {
	err := toStatus(assert.AnError)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.NotContains(t, st.Message(), assert.AnError.Error())
}
