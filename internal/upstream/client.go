// internal/upstream/client.go
package upstream

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/ifallious/Wynncraft-Item-Viewer/internal/errors"
)

const (
	// DefaultURL is the full item database endpoint
	DefaultURL = "https://api.wynncraft.com/v3/item/database?fullResult"
	// DefaultUserAgent identifies this service to the item API
	DefaultUserAgent = "Wynncraft-Item-Viewer/1.0"
)

// Fetcher returns the raw upstream item collection
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Client is a single-request HTTP client for the item database
type Client struct {
	url       string
	userAgent string
	client    *http.Client
}

// Option customises a Client
type Option func(*Client)

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds the whole request; zero means no timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// NewClient creates a client for url, or DefaultURL when url is empty
func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	c := &Client{
		url:       url,
		userAgent: DefaultUserAgent,
		client:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client fetches
func (c *Client) URL() string {
	return c.url
}

// Fetch performs one GET and returns the body when it is well-formed JSON.
// Failures are AppErrors of the upstream_* types, wrapping an error with a stack trace.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.NewUpstreamTransportError("invalid upstream request",
			errors.Wrap(err, "build request"))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamTransportError("upstream API unreachable",
			errors.Wrapf(err, "GET %s", c.url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, apperrors.NewUpstreamStatusError(
			fmt.Sprintf("upstream API returned %d", resp.StatusCode),
			errors.Errorf("GET %s: HTTP %s", c.url, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewUpstreamTransportError("upstream response interrupted",
			errors.Wrap(err, "read body"))
	}

	if !json.Valid(body) {
		return nil, apperrors.NewUpstreamDecodeError("upstream response is not valid JSON",
			errors.Errorf("GET %s: %d bytes of invalid JSON", c.url, len(body)))
	}

	return body, nil
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// StackTrace renders the innermost recorded stack trace in err's chain, or "" when none
func StackTrace(err error) string {
	var trace string
	for err != nil {
		if st, ok := err.(stackTracer); ok {
			trace = fmt.Sprintf("%+v", st.StackTrace())
		}
		err = stderrors.Unwrap(err)
	}
	return trace
}
