package fieldmap

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/MKhiriev/repcue-sync/models"
)

func parseEnvelope(w models.WireRecord) (models.SyncMetadata, error) {
	var meta models.SyncMetadata

	id, ok := w[WireID].(string)
	if !ok || id == "" {
		return meta, ErrMissingID
	}
	meta.ID = id

	switch owner := w[WireOwnerID].(type) {
	case nil:
	case string:
		if owner != "" {
			meta.OwnerID = &owner
		}
	default:
		return meta, fmt.Errorf("%w: %s has type %T", ErrInvalidEnvelope, WireOwnerID, owner)
	}

	var err error
	if meta.CreatedAt, err = parseTime(w, WireCreatedAt); err != nil {
		return meta, err
	}
	if meta.UpdatedAt, err = parseTime(w, WireUpdatedAt); err != nil {
		return meta, err
	}

	switch deleted := w[WireDeleted].(type) {
	case nil:
	case bool:
		meta.Deleted = deleted
	default:
		return meta, fmt.Errorf("%w: %s has type %T", ErrInvalidEnvelope, WireDeleted, deleted)
	}

	if meta.Version, err = parseVersion(w[WireVersion]); err != nil {
		return meta, err
	}

	return meta, nil
}

func parseTime(w models.WireRecord, key string) (time.Time, error) {
	switch v := w[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s: %w", ErrInvalidEnvelope, key, err)
		}
		return t.UTC(), nil
	case time.Time:
		return v.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s is missing or has type %T", ErrInvalidEnvelope, key, v)
	}
}

func parseVersion(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) || n < 0 {
			return 0, fmt.Errorf("%w: %s is not a whole number", ErrInvalidEnvelope, WireVersion)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrInvalidEnvelope, WireVersion, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidEnvelope, WireVersion, v)
	}
}
