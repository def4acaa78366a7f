package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	talent "github.com/goliatone/go-talent-session"
)

const (
	defaultBaseURL = "http://localhost:5050"
	defaultTimeout = 10 * time.Second
)

// Handler sends a prepared request. The innermost handler is the transport.
type Handler func(*http.Request) (*http.Response, error)

// Middleware wraps a Handler with a cross-cutting behavior.
type Middleware func(Handler) Handler

// Chain wraps h with mws. The first middleware listed is the outermost: it
// sees the request first and the response last.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// Config interface for the client without import cycles
type Config interface {
	GetBaseURL() string
	GetTimeout() time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMiddleware appends middlewares to the pipeline, outermost first.
func WithMiddleware(mws ...Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

// WithLogger sets the client logger
func WithLogger(logger talent.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is the request pipeline: every call goes through the same
// middleware list before it reaches the transport.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	middlewares []Middleware
	handler     Handler
	logger      talent.Logger
}

// New builds the client and freezes the middleware chain.
func New(cfg Config, opts ...Option) *Client {
	baseURL := defaultBaseURL
	timeout := defaultTimeout
	if cfg != nil {
		if u := strings.TrimSpace(cfg.GetBaseURL()); u != "" {
			baseURL = u
		}
		if t := cfg.GetTimeout(); t > 0 {
			timeout = t
		}
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     nopLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.handler = Chain(c.transport, c.middlewares...)
	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) transport(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// Do sends a JSON request through the pipeline and decodes the JSON response
// into out, when given. Non-2xx responses return *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body").
				WithMetadata(map[string]any{"method": method, "path": path})
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request").
			WithMetadata(map[string]any{"method": method, "path": path})
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.handler(req)
	if err != nil {
		c.logger.Debug("%s %s transport error: %v", method, path, err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "request failed").
			WithMetadata(map[string]any{"method": method, "path": path})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read response body").
			WithMetadata(map[string]any{"method": method, "path": path})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, raw := parseAPIError(data)
		return &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: msg,
			Raw:     raw,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response").
			WithMetadata(map[string]any{"method": method, "path": path, "status": resp.StatusCode})
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
