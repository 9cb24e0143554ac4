package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MKhiriev/repcue-sync/models"
)

// mapHTTPError classifies a completed HTTP exchange. It returns nil for 2xx.
func mapHTTPError(transport string, resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	apiErr := decodeAPIError(body)
	te := &TransportError{Transport: transport, StatusCode: code, Body: body}
	if apiErr.Error != "" {
		te.Body = apiErr.Error
	}

	switch {
	case apiErr.Code == models.ErrorCodeEmptyBody:
		te.Kind = KindEmptyBody
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		te.Kind = KindAuth
	case code == http.StatusBadRequest && apiErr.Code == "":
		// proxies answer 400 with an html page when they lose the body
		te.Kind = KindAmbiguousStatus
	case code == http.StatusBadRequest,
		code == http.StatusConflict,
		code == http.StatusUnprocessableEntity,
		code == http.StatusRequestEntityTooLarge,
		code == http.StatusTooManyRequests:
		te.Kind = KindApplication
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		te.Kind = KindTimeout
	default:
		te.Kind = KindAmbiguousStatus
	}

	if te.Body == "" {
		te.Body = http.StatusText(code)
	}
	return te
}

func decodeAPIError(body string) models.APIError {
	var apiErr models.APIError
	if body == "" || body[0] != '{' {
		return apiErr
	}
	_ = json.Unmarshal([]byte(body), &apiErr)
	return apiErr
}

// classifyRequestError classifies an error returned before any response was
// received.
func classifyRequestError(transport string, err error) *TransportError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newTransportError(transport, KindTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return newTransportError(transport, KindTimeout, err)
	default:
		return newTransportError(transport, KindNetwork, err)
	}
}

// mapGRPCError classifies an error returned by a gRPC invocation.
func mapGRPCError(transport string, err error) *TransportError {
	st, ok := status.FromError(err)
	if !ok {
		return classifyRequestError(transport, err)
	}

	te := &TransportError{Transport: transport, Body: st.Message(), Err: err}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		te.Kind = KindAuth
	case codes.Unavailable:
		te.Kind = KindNetwork
	case codes.DeadlineExceeded:
		te.Kind = KindTimeout
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists,
		codes.ResourceExhausted, codes.OutOfRange, codes.NotFound:
		te.Kind = KindApplication
	case codes.Canceled:
		te.Kind = KindNetwork
	default:
		// Unknown, Internal, Unimplemented, DataLoss, Aborted
		te.Kind = KindAmbiguousStatus
	}
	return te
}
