package client

import (
	"net/http"

	"go.uber.org/zap"
)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// OnSessionExpired is called after the session was cleared because the
// refresh failed; the caller sends the user back to login.
func OnSessionExpired(fn func(error)) Option {
	return func(c *Client) { c.onExpired = fn }
}

func OnTransition(fn func(Transition)) Option {
	return func(c *Client) { c.onTransition = fn }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}
