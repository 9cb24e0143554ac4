package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

type tokenRequest struct {
	Subject string `json:"subject"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// issueToken hands out a bearer token for any subject. The development
// server keeps no user database.
func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" {
		log.Err(err).Str("func", "*Handler.issueToken").Msg("invalid token request")
		utils.WriteError(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "subject is required")
		return
	}

	token, err := h.services.AuthService.CreateToken(ctx, req.Subject)
	if err != nil {
		log.Err(err).Str("func", "*Handler.issueToken").Msg("creation of token failed")
		h.writeError(w, err)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	utils.WriteJSON(w, tokenResponse{AccessToken: token, TokenType: "bearer"}, http.StatusOK)
}
