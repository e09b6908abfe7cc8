// Package remote is the client side of the document conversion service.
//
// Contract: POST <endpoint> with {"markdown": "..."}; a 2xx reply carries
// the document bytes, anything else a JSON body with an "error" string.
// The client never retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/alnah/go-md2docx/internal/logging"
)

// Defaults for the conversion contract.
const (
	DefaultFilename         = "document.docx"
	DefaultMaxResponseBytes = 50 << 20
	RequestIDHeader         = "X-Request-ID"
	fallbackFailure         = "Conversion failed"
	docxContentType         = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Document is a converted file ready to be saved. Filename is always
// DefaultFilename; callers that need another name rename on save.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
	RequestID   string
}

// Health is the service's /health reply.
type Health struct {
	Status          string `json:"status"`
	PandocAvailable bool   `json:"pandoc_available"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the request logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNoOp(l) }
}

// WithMaxResponseBytes caps the accepted document size.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// Client talks to one conversion endpoint.
type Client struct {
	endpoint *url.URL
	http     *http.Client
	timeout  time.Duration
	logger   logging.Logger
	maxBytes int64
}

// New validates endpoint and builds a Client.
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q needs an http(s) scheme and host", ErrInvalidEndpoint, endpoint)
	}

	c := &Client{
		endpoint: u,
		http:     http.DefaultClient,
		logger:   logging.NoOp(),
		maxBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the conversion URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// HealthURL returns <origin>/health for the conversion endpoint.
func (c *Client) HealthURL() string {
	u := *c.endpoint
	u.Path = "/health"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

type convertRequest struct {
	Markdown string `json:"markdown"`
}

// Convert sends markdown to the service and returns the document.
// A non-2xx reply is returned as *ServiceError.
func (c *Client) Convert(ctx context.Context, markdown string) (*Document, error) {
	body, err := json.Marshal(convertRequest{Markdown: markdown})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", docxContentType+", application/json")
	req.Header.Set(RequestIDHeader, requestID)

	log := logging.WithFields(c.logger, map[string]any{"request_id": requestID})
	log.Debug("conversion request", "endpoint", c.endpoint.String(), "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("conversion transport failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer drainAndClose(resp.Body)

	data, err := c.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		svcErr := &ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
		log.Warn("conversion rejected", "status", resp.StatusCode, "error", svcErr.Message)
		return nil, svcErr
	}

	log.Info("conversion succeeded", "bytes", len(data))
	return &Document{
		Data:        data,
		Filename:    DefaultFilename,
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   requestID,
	}, nil
}

// Health queries <origin>/health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.HealthURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer drainAndClose(resp.Body)

	data, err := c.readBody(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &h, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, c.maxBytes)
	}
	return data, nil
}

// errorMessage extracts the service's "error" field. Valid JSON without it
// yields a generic failure; anything else falls back to the status text.
func errorMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String && msg.Str != "" {
			return msg.Str
		}
		return fallbackFailure
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fallbackFailure
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
