// Package rest implements the HTTP client for the Parlor platform's
// REST API. The API itself is an external collaborator: this package only
// knows its paths, payload shapes, and error envelope.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/parlorchat/parlor-go/instrumentation"
)

// RequestIDHeader is the HTTP header carrying the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// DefaultRequestTimeout is applied to calls whose context has no deadline.
const DefaultRequestTimeout = 30 * time.Second

// Config holds REST client configuration.
type Config struct {
	// BaseURL is the API origin, e.g. "https://parlor.chat" (required).
	// Paths under /api/ are appended to it.
	BaseURL string

	// TokenSource supplies bearer tokens for authenticated calls.
	// Nil means unauthenticated requests.
	TokenSource oauth2.TokenSource

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client

	// RequestTimeout is the per-call timeout applied when the caller's
	// context has no deadline (default: 30s).
	RequestTimeout time.Duration

	// Logger for structured logging (optional, uses slog.Default if not provided)
	Logger *slog.Logger

	// Instrumentation enables request metrics and tracing (optional).
	Instrumentation *instrumentation.Instrumentation
}

// Client is the REST API client. It is safe for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokenSource    oauth2.TokenSource
	requestTimeout time.Duration
	logger         *slog.Logger
	inst           *instrumentation.Instrumentation
}

// NewClient creates a new API client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", base.Scheme)
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = DefaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     httpClient,
		tokenSource:    cfg.TokenSource,
		requestTimeout: requestTimeout,
		logger:         logger,
		inst:           cfg.Instrumentation,
	}, nil
}

// ensureContextTimeout ensures the context has a deadline, adding one if needed.
// If the context already has a deadline, returns the original context with a
// no-op cancel.
func (c *Client) ensureContextTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

// do performs a JSON API request. body may be nil; if out is non-nil the
// response body is decoded into it. Non-2xx responses are returned as
// *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := c.ensureContextTimeout(ctx)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

// send applies auth and correlation headers, executes the request, and
// decodes the response. Shared by do and the multipart upload paths.
func (c *Client) send(req *http.Request, out any) error {
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	if c.tokenSource != nil {
		token, err := c.tokenSource.Token()
		if err != nil {
			return fmt.Errorf("failed to obtain access token: %w", err)
		}
		token.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordMetrics(req, 0, start)
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.recordMetrics(req, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.decodeError(resp)
		c.logger.Debug("API request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"code", apiErr.Code,
			"request_id", requestID,
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError converts a non-2xx response into an *APIError. The backend's
// envelope is {"error": code, "message": description}, but malformed bodies
// still map to a status-derived code.
func (c *Client) decodeError(resp *http.Response) *APIError {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	// Error bodies are small; cap the read defensively.
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == "" {
		return NewAPIError(codeForStatus(resp.StatusCode), http.StatusText(resp.StatusCode), resp.StatusCode)
	}
	desc := envelope.Message
	if desc == "" {
		desc = http.StatusText(resp.StatusCode)
	}
	return NewAPIError(envelope.Error, desc, resp.StatusCode)
}

func (c *Client) recordMetrics(req *http.Request, status int, start time.Time) {
	if c.inst == nil {
		return
	}
	c.inst.Metrics().RecordAPIRequest(
		req.Context(),
		req.Method,
		req.URL.Path,
		status,
		float64(time.Since(start).Milliseconds()),
	)
}
