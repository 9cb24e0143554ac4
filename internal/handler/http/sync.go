package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

// sync serves the sync round trip on both the primary and the direct path.
// A missing body is answered with the empty_body code so clients can tell a
// request lost by a proxy from a rejected one.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	ownerID, found := utils.GetOwnerIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.sync").Msg("no owner id was given")
		utils.WriteError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "no owner id was given")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Err(err).Str("func", "*Handler.sync").Msg("failed to read request body")
		utils.WriteError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "failed to read request body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		log.Warn().Str("func", "*Handler.sync").Msg("empty sync request body")
		h.writeError(w, ErrEmptyBody)
		return
	}

	var req models.SyncRequest
	if err = json.Unmarshal(body, &req); err != nil {
		log.Err(err).Str("func", "*Handler.sync").Msg("invalid JSON was passed")
		utils.WriteError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid JSON was passed")
		return
	}
	if req.ClientInfo.DeviceID == "" {
		req.ClientInfo.DeviceID = r.Header.Get(headerDeviceID)
	}

	resp, err := h.services.SyncService.Sync(ctx, ownerID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.sync").Str("owner", ownerID).Msg("sync failed")
		h.writeError(w, err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, code := statusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	utils.WriteError(w, status, code, msg)
}
