package airtable

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends requests through a copy of hc. WithTimeout does not
// apply to it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize sets the list page size, capped at the API maximum of 100.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= maxPageSize {
			c.pageSize = n
		}
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(perSecond int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.rateLimit = perSecond
		}
	}
}

// WithTypecast lets Airtable coerce string values into typed cells on writes.
func WithTypecast(on bool) Option {
	return func(c *Client) {
		c.typecast = on
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
