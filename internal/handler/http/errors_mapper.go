package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/internal/validators"
	"github.com/MKhiriev/repcue-sync/models"
)

type errorStatus struct {
	status int
	code   string
}

var errorStatusMap = map[error]errorStatus{
	ErrEmptyBody:            {http.StatusBadRequest, models.ErrorCodeEmptyBody},
	ErrIntegrityCheckFailed: {http.StatusBadRequest, models.ErrorCodeIntegrity},
	ErrUnknownMethod:        {http.StatusNotFound, models.ErrorCodeNotFound},

	service.ErrInvalidSyncRequest:      {http.StatusBadRequest, models.ErrorCodeInvalidRequest},
	service.ErrInvalidCursor:           {http.StatusBadRequest, models.ErrorCodeInvalidRequest},
	service.ErrInvalidOperation:        {http.StatusBadRequest, models.ErrorCodeInvalidRequest},
	service.ErrForbidden:               {http.StatusForbidden, models.ErrorCodeUnauthorized},
	service.ErrTokenIsExpiredOrInvalid: {http.StatusUnauthorized, models.ErrorCodeUnauthorized},
	service.ErrTokenCreationFailed:     {http.StatusInternalServerError, models.ErrorCodeInternal},

	validators.ErrInvalidSyncRequest: {http.StatusBadRequest, models.ErrorCodeInvalidRequest},
	validators.ErrInvalidOperation:   {http.StatusBadRequest, models.ErrorCodeInvalidRequest},
}

func statusFromError(err error) (int, string) {
	for target, s := range errorStatusMap {
		if errors.Is(err, target) {
			return s.status, s.code
		}
	}
	return http.StatusInternalServerError, models.ErrorCodeInternal
}
