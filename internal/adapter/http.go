// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

// Headers set on every request.
const (
	HeaderAuthorization = "Authorization"
	HeaderDeviceID      = "X-Device-ID"
	HeaderHash          = "HashSHA256"
	HeaderIdempotency   = "Idempotency-Key"
)

// HTTPOptions configures an HTTP sync transport.
type HTTPOptions struct {
	// Name labels the transport in errors and logs ("primary", "direct").
	Name     string
	BaseURL  string
	SyncPath string
	Timeout  time.Duration
	HashKey  string
	Tokens   TokenSource
}

type httpTransport struct {
	name     string
	syncPath string
	client   *utils.HTTPClient
	hasher   *utils.Hasher
	tokens   TokenSource
}

// NewHTTPTransport returns a [SyncTransport] posting JSON to
// BaseURL+SyncPath.
func NewHTTPTransport(opts HTTPOptions) (SyncTransport, error) {
	client, err := utils.NewHTTPClient(opts.BaseURL, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%s transport: %w", opts.Name, err)
	}
	return newHTTPTransport(opts, client), nil
}

func newHTTPTransport(opts HTTPOptions, client *utils.HTTPClient) *httpTransport {
	name := opts.Name
	if name == "" {
		name = "http"
	}
	syncPath := opts.SyncPath
	if !strings.HasPrefix(syncPath, "/") {
		syncPath = "/" + syncPath
	}
	return &httpTransport{
		name:     name,
		syncPath: syncPath,
		client:   client,
		hasher:   utils.NewHasher(opts.HashKey),
		tokens:   opts.Tokens,
	}
}

func (t *httpTransport) CallSync(ctx context.Context, req models.SyncRequest) (models.SyncResponse, error) {
	log := logger.FromContext(ctx)

	body, err := json.Marshal(req)
	if err != nil {
		return models.SyncResponse{}, newTransportError(t.name, KindValidation, err)
	}

	resp, err := t.request(ctx, req.ClientInfo.DeviceID, body).Post(t.syncPath)
	if err != nil {
		te := classifyRequestError(t.name, err)
		log.Err(err).Str("func", "httpTransport.CallSync").Str("transport", t.name).
			Str("kind", string(te.Kind)).Msg("sync request failed")
		return models.SyncResponse{}, te
	}

	if err = mapHTTPError(t.name, resp); err != nil {
		log.Err(err).Str("func", "httpTransport.CallSync").Str("transport", t.name).
			Int("status", resp.StatusCode()).Msg("sync request rejected")
		return models.SyncResponse{}, err
	}

	raw := resp.Body()
	if len(strings.TrimSpace(string(raw))) == 0 {
		return models.SyncResponse{}, &TransportError{
			Transport:  t.name,
			Kind:       KindEmptyBody,
			StatusCode: resp.StatusCode(),
			Err:        errors.New("empty response body"),
		}
	}

	var out models.SyncResponse
	if err = json.Unmarshal(raw, &out); err != nil {
		return models.SyncResponse{}, &TransportError{
			Transport:  t.name,
			Kind:       KindDecode,
			StatusCode: resp.StatusCode(),
			Err:        err,
		}
	}

	log.Debug().Str("func", "httpTransport.CallSync").Str("transport", t.name).
		Int("pushed", req.RecordCount()).Str("cursor", out.Cursor).Msg("sync round trip done")
	return out, nil
}

// request builds a resty request carrying the auth, device and hash headers.
func (t *httpTransport) request(ctx context.Context, deviceID string, body []byte) *resty.Request {
	r := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body)

	if deviceID != "" {
		r.SetHeader(HeaderDeviceID, deviceID)
	}
	if t.tokens != nil {
		if token := t.tokens.AccessToken(); token != "" {
			r.SetAuthToken(token)
		}
	}
	if sig := t.hasher.Hex(body); sig != "" {
		r.SetHeader(HeaderHash, sig)
	}
	return r
}
