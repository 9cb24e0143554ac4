package http

import (
	"context"
	"net/http"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

// auth is an HTTP middleware that enforces bearer token authentication.
//
// It extracts the token from the "Authorization" header, verifies it via
// [service.AuthService.ParseToken] and stores the token subject in the
// request context under [utils.OwnerIDCtxKey]. The X-Device-ID header, when
// present, is stored under [utils.DeviceIDCtxKey].
//
// Every rejection is answered with 401 and the "unauthorized" error code.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			utils.WriteError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, ErrEmptyAuthorizationHeader.Error())
			return
		}

		tokenString, err := utils.ParseBearerToken(authHeader)
		if err != nil {
			log.Err(err).Send()
			utils.WriteError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, err.Error())
			return
		}

		ctx := r.Context()
		ownerID, err := h.services.AuthService.ParseToken(ctx, tokenString)
		if err != nil {
			log.Err(err).Msg("error occurred during parsing token")
			utils.WriteError(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, err.Error())
			return
		}

		ctx = context.WithValue(ctx, utils.OwnerIDCtxKey, ownerID)
		if deviceID := r.Header.Get(headerDeviceID); deviceID != "" {
			ctx = context.WithValue(ctx, utils.DeviceIDCtxKey, deviceID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
