// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

func testRequest() models.SyncRequest {
	return models.SyncRequest{
		Tables: map[string]models.TableChanges{
			models.TableExercises: {
				Upserts: []models.WireRecord{{"id": "ex-1", "name": "Push-up", "version": float64(2)}},
				Deletes: []string{"ex-2"},
			},
		},
		ClientInfo: models.ClientInfo{AppVersion: "1.0.0", DeviceID: "dev-1"},
	}
}

// newTestTransport создаёт httpTransport, направленный на тестовый сервер
func newTestTransport(t *testing.T, serverURL, hashKey string) *httpTransport {
	t.Helper()
	tr, err := NewHTTPTransport(HTTPOptions{
		Name:     "primary",
		BaseURL:  serverURL,
		SyncPath: "/functions/v1/sync",
		Timeout:  2 * time.Second,
		HashKey:  hashKey,
		Tokens:   staticToken("tok-123"),
	})
	require.NoError(t, err)
	return tr.(*httpTransport)
}

// ── CallSync ────────────────────────────────────────────────────────────────

func TestHTTPTransport_CallSync_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/functions/v1/sync", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "dev-1", r.Header.Get(HeaderDeviceID))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, utils.NewHasher("secret").Verify(body, r.Header.Get(HeaderHash)))

		var req models.SyncRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Nil(t, req.Since)
		assert.Equal(t, []string{"ex-2"}, req.Tables[models.TableExercises].Deletes)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"changes":{"exercises":{"upserts":[{"id":"ex-9"}],"deletes":[]}},"cursor":"c-1"}`))
	}))
	defer srv.Close()

	resp, err := newTestTransport(t, srv.URL, "secret").CallSync(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.Cursor)
	require.Len(t, resp.Changes[models.TableExercises].Upserts, 1)
	assert.Equal(t, "ex-9", resp.Changes[models.TableExercises].Upserts[0]["id"])
}

func TestHTTPTransport_CallSync_NoHashHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(HeaderHash))
		_, _ = w.Write([]byte(`{"changes":{},"cursor":"c"}`))
	}))
	defer srv.Close()

	_, err := newTestTransport(t, srv.URL, "").CallSync(context.Background(), testRequest())
	require.NoError(t, err)
}

func TestHTTPTransport_CallSync_Classification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "typed empty body", status: http.StatusBadRequest, body: `{"error":"empty request body","code":"empty_body"}`, want: ErrEmptyBody},
		{name: "proxy 400 without code", status: http.StatusBadRequest, body: `<html>bad request</html>`, want: ErrAmbiguousStatus},
		{name: "invalid request", status: http.StatusBadRequest, body: `{"error":"bad table","code":"invalid_request"}`, want: ErrApplication},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"token expired","code":"unauthorized"}`, want: ErrAuth},
		{name: "forbidden", status: http.StatusForbidden, want: ErrAuth},
		{name: "conflict", status: http.StatusConflict, want: ErrApplication},
		{name: "internal", status: http.StatusInternalServerError, body: "boom", want: ErrAmbiguousStatus},
		{name: "bad gateway", status: http.StatusBadGateway, want: ErrAmbiguousStatus},
		{name: "gateway timeout", status: http.StatusGatewayTimeout, want: ErrTimeout},
		{name: "success without body", status: http.StatusOK, want: ErrEmptyBody},
		{name: "success with garbage", status: http.StatusOK, body: "not json", want: ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestTransport(t, srv.URL, "").CallSync(context.Background(), testRequest())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, "primary", te.Transport)
		})
	}
}

func TestHTTPTransport_CallSync_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestTransport(t, url, "").CallSync(context.Background(), testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestHTTPTransport_CallSync_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestTransport(t, srv.URL, "").CallSync(ctx, testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestNewHTTPTransport_InvalidAddress(t *testing.T) {
	_, err := NewHTTPTransport(HTTPOptions{BaseURL: "  "})
	assert.Error(t, err)
}
