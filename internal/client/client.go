// Package client talks to the CSV server's HTTP API.
//
// It covers the three mutations the editing page performs (upload a file,
// rename a column, delete a row) and the listing used to rebuild view state
// afterwards. Non-success responses are turned into *APIError values carrying
// the server's detail message.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/csvedit/internal/logging"
	"github.com/google/uuid"
)

// DefaultListPath is the listing endpoint fetched by ListFiles.
const DefaultListPath = "/list/"

// Client is an HTTP client for the CSV server.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	listPath  string
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses hc for requests. The client is copied; its transport is
// wrapped with request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout bounds every request. A positive value overrides the Timeout of
// a client given to WithHTTPClient regardless of option order; zero leaves it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithListPath overrides the path fetched by ListFiles.
func WithListPath(p string) Option {
	return func(c *Client) {
		c.listPath = p
	}
}

// New creates a Client for the server rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:   strings.TrimRight(u.String(), "/"),
		http:      &http.Client{},
		userAgent: "csvedit",
		listPath:  DefaultListPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.http.Timeout = c.timeout
	}

	next := c.http.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.http.Transport = &loggingTransport{next: next}

	return c, nil
}

// newRequest builds a request for path, which must already be escaped.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do sends req and decodes a successful JSON body into out when out is non-nil.
// Any non-2xx status is returned as an error from decodeError.
func (c *Client) do(req *http.Request, out any) error {
	reqID := uuid.NewString()
	req = req.WithContext(logging.WithRequestID(req.Context(), reqID))
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, reqID)
	}

	if out == nil {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
