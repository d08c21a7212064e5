// Package httpfetch implements ports.Fetcher over net/http.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/plugmirror/internal/ports"
)

// Client errors.
var (
	ErrNetworkError = errors.New("network error")
	ErrNotFound     = errors.New("not found")
	ErrServerError  = errors.New("server error")
	ErrFetchFailed  = errors.New("fetch failed")
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "plugmirror/1.0"

// Config configures the HTTP client.
type Config struct {
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	// UserAgent is the User-Agent header value.
	UserAgent string
}

// Client fetches pages synchronously, without retries.
type Client struct {
	config     Config
	httpClient *http.Client
}

var _ ports.Fetcher = (*Client)(nil)

// New creates a Client.
func New(config Config) *Client {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Get performs an HTTP GET and returns the response body. Any status other
// than 2xx is an error.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: request creation failed: %w", ErrNetworkError, err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Continue
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrNetworkError, err)
	}

	return data, nil
}
