package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/threadline/storefront-gateway/pkg/config"
	pkgerrors "github.com/threadline/storefront-gateway/pkg/errors"
	"github.com/threadline/storefront-gateway/pkg/logger"
	"github.com/threadline/storefront-gateway/pkg/metrics"
)

const responseBodyReadLimit int64 = 1 << 20

var errBaseURLRequired = errors.New("remote base url is required")

// Client wraps the commerce backend REST API consumed by the gateway.
// All storefront and back-office traffic funnels through it.
type Client struct {
	httpClient    *http.Client
	uploadClient  *http.Client
	baseURL       string
	adminBasePath string
	userAgent     string
	logg          *logger.Logger
	metrics       *metrics.SyncMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured backend origin.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the commerce backend client.
func NewClient(cfg config.RemoteConfig, logg *logger.Logger, m *metrics.SyncMetrics, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		uploadClient:  &http.Client{Timeout: uploadTimeout},
		baseURL:       baseURL,
		adminBasePath: strings.TrimRight(cfg.AdminBasePath, "/"),
		userAgent:     cfg.UserAgent,
		logg:          logg,
		metrics:       m,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// request describes one backend call.
type request struct {
	operation   string
	method      string
	path        string
	token       string
	body        any
	rawBody     io.Reader
	contentType string
	upload      bool
}

// do issues the request and decodes a 2xx JSON response into dest (when dest
// is non-nil). Failures come back as typed errors: DEPENDENCY_ERROR for
// transport problems, REMOTE_ERROR (or a more specific code) for non-2xx.
func (c *Client) do(ctx context.Context, req request, dest any) error {
	var body io.Reader
	contentType := req.contentType
	if req.rawBody != nil {
		body = req.rawBody
	} else if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token := strings.TrimSpace(req.token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	client := c.httpClient
	if req.upload {
		client = c.uploadClient
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	c.metrics.ObserveRemote(req.operation, time.Since(start))
	if err != nil {
		c.metrics.IncRemoteFailure(req.operation)
		c.logFailure(ctx, req.operation, err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commerce backend unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		c.metrics.IncRemoteFailure(req.operation)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.IncRemoteFailure(req.operation)
		mapped := c.mapStatusError(req.operation, resp.StatusCode, payload)
		c.logFailure(ctx, req.operation, mapped)
		return mapped
	}

	if dest == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		c.metrics.IncRemoteFailure(req.operation)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding backend response")
	}
	return nil
}

// backendError is the error envelope shape the backend responds with. Some
// endpoints nest the message, others return it flat.
type backendError struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) mapStatusError(operation string, status int, payload []byte) error {
	message := extractBackendMessage(payload)

	if isDuplicateWishlistMessage(message) {
		return pkgerrors.New(pkgerrors.CodeDuplicate, message)
	}

	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, nonEmpty(message, "authentication rejected"))
	case http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeForbidden, nonEmpty(message, "access denied"))
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, nonEmpty(message, "resource not found"))
	case http.StatusConflict:
		return pkgerrors.New(pkgerrors.CodeDuplicate, nonEmpty(message, "conflict"))
	}

	err := pkgerrors.New(pkgerrors.CodeRemote, nonEmpty(message, fmt.Sprintf("backend returned %d", status)))
	return err.WithDetails(map[string]any{"operation": operation, "status": status})
}

func extractBackendMessage(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	var envelope backendError
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return envelope.Message
}

// isDuplicateWishlistMessage detects the backend's duplicate-add rejection.
// The backend does not expose a structured code for this case yet, so the
// check pattern-matches the message text.
func isDuplicateWishlistMessage(message string) bool {
	return strings.Contains(strings.ToLower(message), "already in wishlist")
}

// IsDuplicateWishlist reports whether the error is the duplicate-add
// rejection, which callers treat as a successful no-op.
func IsDuplicateWishlist(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeDuplicate)
}

func (c *Client) logFailure(ctx context.Context, operation string, err error) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithOperation(ctx, operation)
	c.logg.Warn(ctx, "backend call failed: "+err.Error())
}

func nonEmpty(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}
