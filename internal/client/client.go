// Package client talks to the school platform REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/pkg/middleware/requestid"
)

// TokenProvider supplies the bearer token attached to authenticated calls.
type TokenProvider interface {
	Token() string
}

// Observer records one upstream round trip. Status is 0 when no response arrived.
type Observer interface {
	ObserveUpstream(method, endpoint string, status int, duration time.Duration)
}

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// Request describes one call to the platform API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Endpoint is the low-cardinality label used for metrics, e.g. "/alunos/:id".
	Endpoint string
	// Anonymous requests are sent without the Authorization header.
	Anonymous bool
	// Token, when set, is sent instead of the provider's token.
	Token string
}

// Client is a thin JSON client for the platform API. It never retries.
type Client struct {
	baseURL  string
	tokens   TokenProvider
	http     Doer
	observer Observer
	logger   *zap.Logger
}

// New builds a Client. A nil token provider sends every request anonymously.
func New(cfg Config, tokens TokenProvider, opts ...Option) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL: cfg.BaseURL,
		tokens:  tokens,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req and decodes a successful JSON response into out. out may be nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if !req.Anonymous {
		token := req.Token
		if token == "" && c.tokens != nil {
			token = c.tokens.Token()
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if id := requestid.FromContext(ctx); id != "" {
		httpReq.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.observe(req.Method, endpoint, 0, start)
		c.logger.Warn("upstream request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.observe(req.Method, endpoint, resp.StatusCode, start)
	if err != nil {
		return &TransportError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("upstream request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   respBody,
		}
		_ = json.Unmarshal(respBody, &httpErr.Payload)
		return httpErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Method: req.Method, Path: req.Path, Err: err}
	}
	return nil
}

// Confirm asks the platform whether it accepts token by listing students with
// it. The response body is discarded.
func (c *Client) Confirm(ctx context.Context, token string) error {
	return c.Do(ctx, Request{
		Method:   http.MethodGet,
		Path:     "/alunos",
		Endpoint: "/alunos",
		Token:    token,
	}, nil)
}

func (c *Client) observe(method, endpoint string, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(method, endpoint, status, time.Since(start))
}
