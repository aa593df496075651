package stash

import (
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Option configures the client.
type Option func(*Client)

// WithAPIKey sets the ApiKey header sent on every request. Empty means
// an unsecured server.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}
