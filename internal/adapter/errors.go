package adapter

import (
	"errors"
	"fmt"
)

// ErrorKind classifies transport failures.
type ErrorKind string

const (
	// KindEmptyBody: the remote signalled that the request body arrived empty
	// or malformed, or a success response came without a body.
	KindEmptyBody ErrorKind = "empty_body"
	// KindAmbiguousStatus: a non-success status that says nothing about the
	// request itself (5xx, unexpected redirects, gateway errors).
	KindAmbiguousStatus ErrorKind = "ambiguous_status"
	// KindAuth: the remote rejected the credentials.
	KindAuth ErrorKind = "auth"
	// KindNetwork: the request did not reach the remote or the connection broke.
	KindNetwork ErrorKind = "network"
	// KindTimeout: the request timed out.
	KindTimeout ErrorKind = "timeout"
	// KindDecode: the response could not be decoded or violates the protocol.
	KindDecode ErrorKind = "decode"
	// KindValidation: the request was rejected locally before sending.
	KindValidation ErrorKind = "validation"
	// KindApplication: the remote processed and rejected the request.
	KindApplication ErrorKind = "application"
)

// Sentinels matched by [TransportError.Is].
var (
	ErrEmptyBody       = errors.New("empty request body")
	ErrAmbiguousStatus = errors.New("ambiguous response status")
	ErrAuth            = errors.New("authentication failed")
	ErrNetwork         = errors.New("network error")
	ErrTimeout         = errors.New("request timed out")
	ErrDecode          = errors.New("cannot decode response")
	ErrValidation      = errors.New("request validation failed")
	ErrApplication     = errors.New("request rejected by remote")
)

var kindSentinels = map[ErrorKind]error{
	KindEmptyBody:       ErrEmptyBody,
	KindAmbiguousStatus: ErrAmbiguousStatus,
	KindAuth:            ErrAuth,
	KindNetwork:         ErrNetwork,
	KindTimeout:         ErrTimeout,
	KindDecode:          ErrDecode,
	KindValidation:      ErrValidation,
	KindApplication:     ErrApplication,
}

// TransportError is returned by every transport in this package.
type TransportError struct {
	Kind       ErrorKind
	Transport  string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s transport: %s", e.Transport, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind.
func (e *TransportError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// KindOf returns the kind of err, or "" if err is not a transport error.
func KindOf(err error) ErrorKind {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

func newTransportError(transport string, kind ErrorKind, err error) *TransportError {
	return &TransportError{Transport: transport, Kind: kind, Err: err}
}
