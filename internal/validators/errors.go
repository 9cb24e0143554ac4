package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")

	ErrInvalidSyncRequest  = errors.New("invalid sync request")
	ErrEmptyTables         = errors.New("sync request has no tables")
	ErrInvalidTableName    = errors.New("invalid table name")
	ErrUpsertWithoutID     = errors.New("upsert record has no id")
	ErrEmptySince          = errors.New("since cursor is present but empty")
	ErrInvalidOperation    = errors.New("invalid queue operation")
	ErrInvalidRecord       = errors.New("invalid record")
	ErrInvalidSyncResponse = errors.New("invalid sync response")
)
