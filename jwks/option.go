package jwks

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// maxFetchTimeout caps WithFetchTimeout.
const maxFetchTimeout = 2 * time.Minute

// Option is how options for the Cache are set up.
type Option func(*Cache) error

// WithJWKSURI sets the URL the key set is fetched from.
func WithJWKSURI(jwksURI *url.URL) Option {
	return func(c *Cache) error {
		if jwksURI == nil {
			return errors.New("JWKS URI cannot be nil")
		}
		c.jwksURI = jwksURI
		return nil
	}
}

// WithIssuerURL sets the issuer whose discovery document names the JWKS URI.
// It is ignored when WithJWKSURI is also given.
func WithIssuerURL(issuerURL *url.URL) Option {
	return func(c *Cache) error {
		if issuerURL == nil {
			return errors.New("issuer URL cannot be nil")
		}
		c.issuerURL = issuerURL
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithFetchTimeout bounds a single fetch, discovery included.
// Defaults to 10 seconds.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) error {
		if d <= 0 {
			return errors.New("fetch timeout must be positive")
		}
		if d > maxFetchTimeout {
			return errors.New("fetch timeout cannot exceed 2 minutes")
		}
		c.fetchTimeout = d
		return nil
	}
}

// WithFetcher replaces the HTTP fetcher. The URL and client options are
// ignored when a fetcher is given.
func WithFetcher(f Fetcher) Option {
	return func(c *Cache) error {
		if f == nil {
			return errors.New("fetcher cannot be nil")
		}
		c.fetcher = f
		return nil
	}
}

// WithLogger sets a logger for fetch and refresh events.
func WithLogger(logger Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the collector that receives fetch outcomes.
func WithMetrics(m Metrics) Option {
	return func(c *Cache) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		c.metrics = m
		return nil
	}
}
