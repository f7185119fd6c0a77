package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultHTTPTimeout is the default HTTP client timeout
	DefaultHTTPTimeout = 30 * time.Second
	// maxErrorBody caps how much of an error response is kept
	maxErrorBody = 512
)

// HTTPClient fetches CSV documents over HTTP(S).
type HTTPClient struct {
	httpClient *http.Client
	headers    map[string]string
	userAgent  string
}

// HTTPOption is a function that configures an HTTPClient
type HTTPOption func(*HTTPClient)

// WithHTTPTimeout sets a custom timeout for the HTTP client
func WithHTTPTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHeader adds a request header, e.g. Authorization.
func WithHeader(key, value string) HTTPOption {
	return func(c *HTTPClient) {
		c.headers[key] = value
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) HTTPOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// NewHTTPClient creates a new HTTP fetcher
func NewHTTPClient(opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		headers:    make(map[string]string),
		userAgent:  "csvprep",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open issues a GET for loc.URL and returns the response body.
func (c *HTTPClient) Open(ctx context.Context, loc Locator) (io.ReadCloser, error) {
	if loc.URL == nil {
		return nil, LocatorError{Locator: loc.Raw, Reason: "missing URL"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, nil
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	body := strings.TrimSpace(string(snippet))
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, AuthenticationError{Message: fmt.Sprintf("access denied to %s (status %d)", loc, resp.StatusCode)}
	case http.StatusNotFound:
		return nil, NotFoundError{Message: fmt.Sprintf("not found: %s", loc)}
	default:
		return nil, StatusError{StatusCode: resp.StatusCode, Body: body}
	}
}
