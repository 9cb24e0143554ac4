package grpc

import (
	"context"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/rpc"
	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

var _ rpc.SyncServer = (*Handler)(nil)

// Handler is the root gRPC transport handler.
//
// It serves [rpc.SyncMethod] on top of the same service layer as the HTTP
// handler. Authentication happens in [Handler.UnaryInterceptors], so Sync
// only runs for requests that carry a verified owner.
type Handler struct {
	// services provides access to all application business operations.
	services *service.Services

	// logger is used for request-scoped and diagnostic log output.
	logger *logger.Logger
}

// NewHandler constructs a [Handler] with the provided service container and
// logger.
func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		services: services,
		logger:   logger,
	}
}

// Sync implements [rpc.SyncServer].
func (h *Handler) Sync(ctx context.Context, req *models.SyncRequest) (*models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	ownerID, ok := utils.GetOwnerIDFromContext(ctx)
	if !ok {
		return nil, toStatus(ErrNoOwner)
	}
	if req == nil {
		return nil, toStatus(ErrEmptyRequest)
	}
	if req.ClientInfo.DeviceID == "" {
		if deviceID, found := utils.GetDeviceIDFromContext(ctx); found {
			req.ClientInfo.DeviceID = deviceID
		}
	}

	resp, err := h.services.SyncService.Sync(ctx, ownerID, *req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.Sync").Str("owner", ownerID).Msg("sync failed")
		return nil, toStatus(err)
	}
	return &resp, nil
}
