package models

// Machine-readable error codes returned by the remote sync endpoint next to
// the human-readable message.
const (
	ErrorCodeEmptyBody      = "empty_body"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeIntegrity      = "integrity_check_failed"
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeInternal       = "internal"
	ErrorCodeNotFound       = "not_found"
)

// APIError is the JSON body of an error response of the remote endpoint.
type APIError struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
