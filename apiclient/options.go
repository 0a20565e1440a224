package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRefreshPath overrides RouteAuthRefresh.
func WithRefreshPath(path string) ClientOption {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithAuthFailureHandler is called when the refresh endpoint rejects the stored refresh token.
func WithAuthFailureHandler(handler func(ctx context.Context, err error)) ClientOption {
	return func(c *Client) {
		c.onAuthFailure = handler
	}
}

// WithObserver receives one Exchange per HTTP round trip, refresh calls included.
func WithObserver(observer func(Exchange)) ClientOption {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithoutSingleFlight lets every 401 start its own refresh call instead of sharing one.
func WithoutSingleFlight() ClientOption {
	return func(c *Client) {
		c.singleFlight = false
	}
}
