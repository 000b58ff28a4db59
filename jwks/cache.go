package jwks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"
)

const defaultFetchTimeout = 10 * time.Second

var (
	// ErrKeySourceUnavailable is returned when the key set could not be
	// fetched or parsed. The cause is wrapped.
	ErrKeySourceUnavailable = errors.New("signing key source unavailable")

	// ErrUnknownSigningKey is returned when no published key matches the
	// requested kid, even after a refetch.
	ErrUnknownSigningKey = errors.New("signing key not found")
)

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives the outcome of every network fetch.
type Metrics interface {
	RecordJWKSFetch(result string, duration time.Duration)
}

// Cache holds the provider's signing keys in memory.
//
// The key set is fetched lazily on first use and kept until it is
// invalidated. A lookup for an unknown kid invalidates the set and refetches
// it once, which is how key rotation is picked up. There is no TTL and no
// background refresh.
//
// Cache is safe for concurrent use. Concurrent fetches for the same
// generation of the cache are coalesced into one request.
type Cache struct {
	jwksURI      *url.URL
	issuerURL    *url.URL
	httpClient   *http.Client
	fetchTimeout time.Duration
	fetcher      Fetcher
	logger       Logger
	metrics      Metrics

	mu         sync.RWMutex
	keys       *KeySet
	generation uint64

	group singleflight.Group
}

// NewCache builds a Cache. One of WithJWKSURI, WithIssuerURL or WithFetcher
// is required.
//
// Example:
//
//	jwksURI, _ := url.Parse("https://login.microsoftonline.com/contoso/discovery/v2.0/keys")
//	cache, err := jwks.NewCache(jwks.WithJWKSURI(jwksURI))
func NewCache(opts ...Option) (*Cache, error) {
	c := &Cache{
		fetchTimeout: defaultFetchTimeout,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.fetcher == nil {
		if c.jwksURI == nil && c.issuerURL == nil {
			return nil, errors.New("a JWKS URI or issuer URL is required (use WithJWKSURI or WithIssuerURL)")
		}
		client := c.httpClient
		if client == nil {
			client = &http.Client{Timeout: c.fetchTimeout}
		}
		c.fetcher = &httpFetcher{
			client:    client,
			jwksURI:   c.jwksURI,
			issuerURL: c.issuerURL,
		}
	}

	return c, nil
}

// SigningKeys returns the cached key set, fetching it first if the cache is
// empty. A failed fetch leaves the cache empty and is not retried.
func (c *Cache) SigningKeys(ctx context.Context) (*KeySet, error) {
	c.mu.RLock()
	keys, gen := c.keys, c.generation
	c.mu.RUnlock()

	if keys != nil {
		return keys, nil
	}

	return c.load(ctx, gen)
}

// SigningKey returns the key published under kid. On a miss the cache is
// invalidated and refetched exactly once before giving up with
// ErrUnknownSigningKey.
func (c *Cache) SigningKey(ctx context.Context, kid string) (jwk.Key, error) {
	if kid == "" {
		return nil, fmt.Errorf("%w: empty key ID", ErrUnknownSigningKey)
	}

	keys, err := c.SigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := keys.Lookup(kid); ok {
		return key, nil
	}

	if c.logger != nil {
		c.logger.Debug("signing key not cached, refetching key set", "kid", kid)
	}

	keys, err = c.refresh(ctx, keys)
	if err != nil {
		return nil, err
	}
	if key, ok := keys.Lookup(kid); ok {
		return key, nil
	}

	if c.logger != nil {
		c.logger.Warn("signing key not published by key source", "kid", kid, "known", keys.KeyIDs())
	}
	return nil, fmt.Errorf("%w: kid %q", ErrUnknownSigningKey, kid)
}

// Invalidate drops the cached key set. The next lookup fetches it again.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.keys = nil
	c.generation++
	c.mu.Unlock()
}

// refresh invalidates stale if it is still the cached set and returns a set
// fetched after that point. A set stored by another caller in the meantime
// is used as is.
func (c *Cache) refresh(ctx context.Context, stale *KeySet) (*KeySet, error) {
	c.mu.Lock()
	if c.keys == stale {
		c.keys = nil
		c.generation++
	}
	keys, gen := c.keys, c.generation
	c.mu.Unlock()

	if keys != nil {
		return keys, nil
	}

	return c.load(ctx, gen)
}

// load fetches the key set for generation gen, sharing the request with any
// other caller waiting on the same generation. The result is only stored if
// the cache was not invalidated while the fetch ran.
func (c *Cache) load(ctx context.Context, gen uint64) (*KeySet, error) {
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		start := time.Now()
		set, err := c.fetcher.Fetch(fetchCtx)
		duration := time.Since(start)

		if err != nil {
			c.recordFetch("error", duration)
			if c.logger != nil {
				c.logger.Error("failed to fetch signing keys", "error", err, "duration", duration)
			}
			return nil, fmt.Errorf("%w: %w", ErrKeySourceUnavailable, err)
		}

		keys := NewKeySet(set)
		c.recordFetch("success", duration)
		if c.logger != nil {
			c.logger.Info("fetched signing keys", "keys", keys.Len(), "duration", duration)
		}

		c.mu.Lock()
		if c.generation == gen {
			c.keys = keys
		}
		c.mu.Unlock()

		return keys, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrKeySourceUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*KeySet), nil
	}
}

func (c *Cache) recordFetch(result string, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordJWKSFetch(result, duration)
	}
}
