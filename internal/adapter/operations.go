package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/repcue-sync/internal/logger"
	"github.com/MKhiriev/repcue-sync/internal/utils"
	"github.com/MKhiriev/repcue-sync/models"
)

// TokenPath is the development server endpoint handing out tokens.
const TokenPath = "/dev/token"

// OperationOptions configures the queue operation sender.
type OperationOptions struct {
	BaseURL    string
	OpsPath    string
	HealthPath string
	Timeout    time.Duration
	HashKey    string
	DeviceID   string
	Tokens     TokenSource
}

// RESTClient sends retry queue operations to the remote REST endpoint and
// answers health checks.
type RESTClient struct {
	client     *utils.HTTPClient
	opsPath    string
	healthPath string
	deviceID   string
	hasher     *utils.Hasher
	tokens     TokenSource
}

// NewRESTClient returns a client implementing [OperationSender] and
// [HealthChecker].
func NewRESTClient(opts OperationOptions) (*RESTClient, error) {
	client, err := utils.NewHTTPClient(opts.BaseURL, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("rest client: %w", err)
	}
	return &RESTClient{
		client:     client,
		opsPath:    "/" + strings.Trim(opts.OpsPath, "/"),
		healthPath: "/" + strings.Trim(opts.HealthPath, "/"),
		deviceID:   opts.DeviceID,
		hasher:     utils.NewHasher(opts.HashKey),
		tokens:     opts.Tokens,
	}, nil
}

// methodFor maps a queue operation type to its HTTP method.
func methodFor(t models.OperationType) (string, error) {
	switch t {
	case models.OperationCreate:
		return http.MethodPost, nil
	case models.OperationUpdate:
		return http.MethodPatch, nil
	case models.OperationDelete:
		return http.MethodDelete, nil
	default:
		return "", fmt.Errorf("unknown operation type %q", t)
	}
}

// Send replays op as METHOD {opsPath}/{endpoint}. The operation id travels in
// the Idempotency-Key header so the remote can drop duplicates.
func (c *RESTClient) Send(ctx context.Context, op models.QueueOperation) error {
	log := logger.FromContext(ctx)

	method, err := methodFor(op.Type)
	if err != nil {
		return newTransportError("rest", KindValidation, err)
	}

	body, err := jsonBody(op.Payload)
	if err != nil {
		return newTransportError("rest", KindValidation, err)
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderIdempotency, op.ID).
		SetBody(body)
	c.decorate(req, body)

	resp, err := req.Execute(method, c.opsPath+"/"+url.PathEscape(op.Endpoint))
	if err != nil {
		return classifyRequestError("rest", err)
	}
	if err = mapHTTPError("rest", resp); err != nil {
		log.Err(err).Str("func", "RESTClient.Send").Str("op_id", op.ID).
			Str("method", method).Msg("operation rejected")
		return err
	}
	return nil
}

// Ping issues GET {healthPath} and succeeds on any 2xx.
func (c *RESTClient) Ping(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get(c.healthPath)
	if err != nil {
		return classifyRequestError("rest", err)
	}
	return mapHTTPError("rest", resp)
}

// IssueToken requests a bearer token from the development token endpoint.
func (c *RESTClient) IssueToken(ctx context.Context, subject string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"subject": subject}).
		SetResult(&out).
		Post(TokenPath)
	if err != nil {
		return "", classifyRequestError("rest", err)
	}
	if err = mapHTTPError("rest", resp); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", newTransportError("rest", KindEmptyBody, ErrEmptyBody)
	}
	return out.AccessToken, nil
}

func (c *RESTClient) decorate(req *resty.Request, body []byte) {
	if c.deviceID != "" {
		req.SetHeader(HeaderDeviceID, c.deviceID)
	}
	if c.tokens != nil {
		if token := c.tokens.AccessToken(); token != "" {
			req.SetAuthToken(token)
		}
	}
	if sig := c.hasher.Hex(body); sig != "" {
		req.SetHeader(HeaderHash, sig)
	}
}

func jsonBody(payload map[string]any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(payload)
}
