package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/internal/validators"
)

var (
	ErrMissingMetadata = errors.New("missing metadata")
	ErrNoOwner         = errors.New("no owner id was given")
	ErrEmptyRequest    = errors.New("empty request body")
)

var errorCodeMap = map[error]codes.Code{
	ErrMissingMetadata:                 codes.Unauthenticated,
	ErrNoOwner:                         codes.Unauthenticated,
	utils.ErrInvalidAuthorizationHead:  codes.Unauthenticated,
	service.ErrTokenIsExpiredOrInvalid: codes.Unauthenticated,
	service.ErrForbidden:               codes.PermissionDenied,

	ErrEmptyRequest:                  codes.InvalidArgument,
	service.ErrInvalidSyncRequest:    codes.InvalidArgument,
	service.ErrInvalidCursor:         codes.InvalidArgument,
	validators.ErrInvalidSyncRequest: codes.InvalidArgument,
}

// toStatus converts err into a gRPC status error. Unknown errors become
// codes.Internal without leaking their text.
func toStatus(err error) error {
	for target, code := range errorCodeMap {
		if errors.Is(err, target) {
			return status.Error(code, err.Error())
		}
	}
	return status.Error(codes.Internal, "internal error")
}
