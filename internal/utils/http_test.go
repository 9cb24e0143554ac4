package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/models"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		data   any
		status int
		body   string
	}{
		{
			name:   "sync response",
			data:   models.SyncResponse{Changes: map[string]models.TableChanges{}, Cursor: "42"},
			status: http.StatusOK,
			body:   `{"changes":{},"cursor":"42"}`,
		},
		{
			name:   "custom status",
			data:   map[string]string{"error": "not found"},
			status: http.StatusNotFound,
			body:   `{"error":"not found"}`,
		},
		{
			name:   "nil",
			data:   nil,
			status: http.StatusOK,
			body:   `null`,
		},
		{
			name:   "slice",
			data:   []string{"exercises", "workouts"},
			status: http.StatusCreated,
			body:   `["exercises","workouts"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			n, err := WriteJSON(w, tt.data, tt.status)

			require.NoError(t, err)
			assert.Equal(t, len(tt.body), n)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestWriteJSON_InvalidData(t *testing.T) {
	w := httptest.NewRecorder()

	// канал не сериализуется в JSON
	_, err := WriteJSON(w, make(chan int), http.StatusOK)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, http.StatusBadRequest, models.ErrorCodeEmptyBody, "empty request body")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr models.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, models.APIError{Error: "empty request body", Code: models.ErrorCodeEmptyBody}, apiErr)
}
