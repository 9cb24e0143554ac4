package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/repcue-sync/internal/service"
	"github.com/MKhiriev/repcue-sync/models"
)

const validSyncBody = `{"since":"4","tables":{"exercises":{"upserts":[{"id":"a","name":"Squat"}],"deletes":["b"]}},` +
	`"clientInfo":{"appVersion":"1.0.0","deviceId":"phone"}}`

func TestSync_Success(t *testing.T) {
	for _, path := range []string{PrimarySyncPath, DirectSyncPath} {
		t.Run(path, func(t *testing.T) {
			th := newTestHandler(t, "")
			th.sync.EXPECT().Sync(gomock.Any(), "user-1", gomock.Any()).DoAndReturn(
				func(_ context.Context, _ string, req models.SyncRequest) (models.SyncResponse, error) {
					require.NotNil(t, req.Since)
					assert.Equal(t, "4", *req.Since)
					assert.Equal(t, "phone", req.ClientInfo.DeviceID)
					assert.Equal(t, []string{"b"}, req.Tables["exercises"].Deletes)
					return models.SyncResponse{
						Changes: map[string]models.TableChanges{
							"workouts": {Upserts: []models.WireRecord{{"id": "w"}}, Deletes: []string{}},
						},
						Cursor: "9",
					}, nil
				})

			rec := th.do(http.MethodPost, path, []byte(validSyncBody), authorized())
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp models.SyncResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "9", resp.Cursor)
			assert.Equal(t, "w", resp.Changes["workouts"].Upserts[0]["id"])
		})
	}
}

func TestSync_DeviceIDFromHeader(t *testing.T) {
	th := newTestHandler(t, "")
	th.sync.EXPECT().Sync(gomock.Any(), "user-1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req models.SyncRequest) (models.SyncResponse, error) {
			assert.Equal(t, "tablet", req.ClientInfo.DeviceID)
			return models.SyncResponse{Cursor: "1"}, nil
		})

	body := `{"tables":{"exercises":{"upserts":[],"deletes":[]}},"clientInfo":{"appVersion":"1.0.0"}}`
	rec := th.do(http.MethodPost, PrimarySyncPath, []byte(body), authorized(headerDeviceID, "tablet"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSync_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantCode: models.ErrorCodeEmptyBody},
		{name: "whitespace body", body: " \n ", wantStatus: http.StatusBadRequest, wantCode: models.ErrorCodeEmptyBody},
		{name: "invalid JSON", body: "{", wantStatus: http.StatusBadRequest, wantCode: models.ErrorCodeInvalidRequest},
		{
			name:       "invalid request",
			body:       validSyncBody,
			serviceErr: service.ErrInvalidSyncRequest,
			wantStatus: http.StatusBadRequest,
			wantCode:   models.ErrorCodeInvalidRequest,
		},
		{
			name:       "bad cursor",
			body:       validSyncBody,
			serviceErr: service.ErrInvalidCursor,
			wantStatus: http.StatusBadRequest,
			wantCode:   models.ErrorCodeInvalidRequest,
		},
		{
			name:       "unexpected",
			body:       validSyncBody,
			serviceErr: assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   models.ErrorCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := newTestHandler(t, "")
			if tt.serviceErr != nil {
				th.sync.EXPECT().Sync(gomock.Any(), "user-1", gomock.Any()).Return(models.SyncResponse{}, tt.serviceErr)
			}

			rec := th.do(http.MethodPost, PrimarySyncPath, []byte(tt.body), authorized())

			assert.Equal(t, tt.wantStatus, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.Error)
		})
	}
}

func TestSync_EmptyBodyMessage(t *testing.T) {
	th := newTestHandler(t, "")

	rec := th.do(http.MethodPost, DirectSyncPath, nil, authorized())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"empty request body","code":"empty_body"}`, rec.Body.String())
}
