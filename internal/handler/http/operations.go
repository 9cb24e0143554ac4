package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

const (
	headerDeviceID    = "X-Device-ID"
	headerIdempotency = "Idempotency-Key"
)

var methodOperations = map[string]models.OperationType{
	http.MethodPost:   models.OperationCreate,
	http.MethodPatch:  models.OperationUpdate,
	http.MethodDelete: models.OperationDelete,
}

// applyOperation replays one retry queue operation against {table}. The
// Idempotency-Key header carries the operation id.
func (h *Handler) applyOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	ownerID, found := utils.GetOwnerIDFromContext(ctx)
	if !found {
		utils.WriteError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, "no owner id was given")
		return
	}

	opType, ok := methodOperations[r.Method]
	if !ok {
		h.writeError(w, ErrUnknownMethod)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Err(err).Str("func", "*Handler.applyOperation").Msg("failed to read request body")
		utils.WriteError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "failed to read request body")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		h.writeError(w, ErrEmptyBody)
		return
	}

	var payload map[string]any
	if err = json.Unmarshal(body, &payload); err != nil {
		log.Err(err).Str("func", "*Handler.applyOperation").Msg("invalid JSON was passed")
		utils.WriteError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid JSON was passed")
		return
	}

	table := chi.URLParam(r, "table")
	op := models.QueueOperation{
		ID:       r.Header.Get(headerIdempotency),
		Type:     opType,
		Endpoint: table,
		Payload:  payload,
	}

	if err = h.services.SyncService.ApplyOperation(ctx, ownerID, table, op); err != nil {
		log.Err(err).Str("func", "*Handler.applyOperation").Str("table", table).Str("op_id", op.ID).
			Msg("operation rejected")
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
