package capability

import "errors"

var (
	ErrEmptyToken   = errors.New("empty access token")
	ErrInvalidToken = errors.New("invalid access token")
)
