package fieldmap

import "errors"

var (
	ErrMissingID        = errors.New("record has no id")
	ErrMissingTable     = errors.New("record has no table")
	ErrInvalidEnvelope  = errors.New("invalid sync envelope field")
	ErrTransform        = errors.New("field transform failed")
	ErrDuplicateMapping = errors.New("duplicate field mapping")
)
