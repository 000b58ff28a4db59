package jwks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entraguard/go-jwt-middleware/internal/testissuer"
)

func newTestCache(t *testing.T, iss *testissuer.Issuer, opts ...Option) *Cache {
	t.Helper()
	opts = append([]Option{WithJWKSURI(iss.JWKSURL()), WithHTTPClient(iss.Client())}, opts...)
	cache, err := NewCache(opts...)
	require.NoError(t, err)
	return cache
}

func TestNewCache(t *testing.T) {
	t.Run("it requires a key source", func(t *testing.T) {
		_, err := NewCache()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWKS URI or issuer URL is required")
	})

	t.Run("it rejects invalid options", func(t *testing.T) {
		tests := []struct {
			name string
			opt  Option
			want string
		}{
			{"nil JWKS URI", WithJWKSURI(nil), "JWKS URI cannot be nil"},
			{"nil issuer URL", WithIssuerURL(nil), "issuer URL cannot be nil"},
			{"nil client", WithHTTPClient(nil), "HTTP client cannot be nil"},
			{"zero timeout", WithFetchTimeout(0), "fetch timeout must be positive"},
			{"huge timeout", WithFetchTimeout(time.Hour), "cannot exceed 2 minutes"},
			{"nil fetcher", WithFetcher(nil), "fetcher cannot be nil"},
			{"nil logger", WithLogger(nil), "logger cannot be nil"},
			{"nil metrics", WithMetrics(nil), "metrics cannot be nil"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewCache(tt.opt)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})

	t.Run("it does not fetch on construction", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		newTestCache(t, iss)
		assert.Equal(t, 0, iss.Fetches())
	})
}

func TestCache_SigningKeys(t *testing.T) {
	t.Run("it fetches once and serves from memory afterwards", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		iss.AddKey(t, "k2")
		cache := newTestCache(t, iss)

		keys, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"k1", "k2"}, keys.KeyIDs())

		again, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)
		assert.Same(t, keys, again)
		assert.Equal(t, 1, iss.Fetches())
	})

	t.Run("it reports the key source as unavailable", func(t *testing.T) {
		tests := []struct {
			name  string
			setup func(iss *testissuer.Issuer)
			want  string
		}{
			{
				name:  "non 200 status",
				setup: func(iss *testissuer.Issuer) { iss.SetUnavailable(http.StatusServiceUnavailable) },
				want:  "status 503",
			},
			{
				name:  "malformed document",
				setup: func(iss *testissuer.Issuer) { iss.SetRawJWKS(`{"keys": [`) },
				want:  "failed to parse JWKS",
			},
			{
				name: "oversized document",
				setup: func(iss *testissuer.Issuer) {
					iss.SetRawJWKS(`{"keys":[],"padding":"` + strings.Repeat("a", maxJWKSSize) + `"}`)
				},
				want: errJWKSTooLarge.Error(),
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				iss := testissuer.New(t)
				iss.AddKey(t, "k1")
				tt.setup(iss)
				cache := newTestCache(t, iss)

				keys, err := cache.SigningKeys(context.Background())
				require.Error(t, err)
				assert.Nil(t, keys)
				assert.ErrorIs(t, err, ErrKeySourceUnavailable)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})

	t.Run("it does not retry and stays empty after a failure", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		iss.SetUnavailable(http.StatusInternalServerError)
		cache := newTestCache(t, iss)

		_, err := cache.SigningKeys(context.Background())
		require.ErrorIs(t, err, ErrKeySourceUnavailable)
		assert.Equal(t, 1, iss.Fetches())

		iss.SetUnavailable(0)
		keys, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, keys.Len())
		assert.Equal(t, 2, iss.Fetches())
	})

	t.Run("it times out slow fetches", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		iss.SetDelay(200 * time.Millisecond)
		cache := newTestCache(t, iss, WithFetchTimeout(20*time.Millisecond))

		_, err := cache.SigningKeys(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeySourceUnavailable)
	})

	t.Run("it stops waiting when the caller gives up", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		cache, err := NewCache(WithFetcher(FetcherFunc(func(ctx context.Context) (jwk.Set, error) {
			<-release
			return jwk.NewSet(), nil
		})))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err = cache.SigningKeys(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeySourceUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("it discovers the JWKS URI from the issuer once", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache, err := NewCache(WithIssuerURL(iss.IssuerURL()), WithHTTPClient(iss.Client()))
		require.NoError(t, err)

		key, err := cache.SigningKey(context.Background(), "k1")
		require.NoError(t, err)
		assert.Equal(t, "k1", key.KeyID())

		cache.Invalidate()
		_, err = cache.SigningKeys(context.Background())
		require.NoError(t, err)

		fetcher := cache.fetcher.(*httpFetcher)
		assert.Equal(t, iss.JWKSURL().String(), fetcher.discovered)
		assert.Equal(t, 2, iss.Fetches())
	})

	t.Run("it coalesces concurrent fetches", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		iss.SetDelay(50 * time.Millisecond)
		cache := newTestCache(t, iss)

		var wg sync.WaitGroup
		errs := make(chan error, 50)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				keys, err := cache.SigningKeys(context.Background())
				if err == nil && keys.Len() != 1 {
					err = errors.New("partial key set")
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, 1, iss.Fetches())
	})
}

func TestCache_SigningKey(t *testing.T) {
	t.Run("it returns a cached key without refetching", func(t *testing.T) {
		iss := testissuer.New(t)
		want := iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		for range 3 {
			key, err := cache.SigningKey(context.Background(), "k1")
			require.NoError(t, err)
			assert.Equal(t, want.KeyID(), key.KeyID())
		}
		assert.Equal(t, 1, iss.Fetches())
	})

	t.Run("it picks up a rotated key with one refetch", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "kidA")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKey(context.Background(), "kidA")
		require.NoError(t, err)

		iss.AddKey(t, "kidB")
		key, err := cache.SigningKey(context.Background(), "kidB")
		require.NoError(t, err)
		assert.Equal(t, "kidB", key.KeyID())
		assert.Equal(t, 2, iss.Fetches())
	})

	t.Run("it gives up after exactly one refetch", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)

		key, err := cache.SigningKey(context.Background(), "nope")
		require.Error(t, err)
		assert.Nil(t, key)
		assert.ErrorIs(t, err, ErrUnknownSigningKey)
		assert.NotErrorIs(t, err, ErrKeySourceUnavailable)
		assert.Equal(t, 2, iss.Fetches())
	})

	t.Run("it fetches twice for an unknown kid on a cold cache", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKey(context.Background(), "nope")
		require.ErrorIs(t, err, ErrUnknownSigningKey)
		assert.Equal(t, 2, iss.Fetches())
	})

	t.Run("it rejects an empty kid without fetching", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKey(context.Background(), "")
		require.ErrorIs(t, err, ErrUnknownSigningKey)
		assert.Equal(t, 0, iss.Fetches())
	})

	t.Run("it reports a failed refetch as unavailable", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)

		iss.SetUnavailable(http.StatusBadGateway)
		_, err = cache.SigningKey(context.Background(), "k2")
		require.ErrorIs(t, err, ErrKeySourceUnavailable)
		assert.NotErrorIs(t, err, ErrUnknownSigningKey)
	})

	t.Run("it refetches once for a burst of misses", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)

		iss.AddKey(t, "k2")
		iss.SetDelay(50 * time.Millisecond)

		var wg sync.WaitGroup
		var failures atomic.Int32
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := cache.SigningKey(context.Background(), "k2"); err != nil {
					failures.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Zero(t, failures.Load())
		assert.Equal(t, 2, iss.Fetches())
	})
}

func TestCache_Invalidate(t *testing.T) {
	t.Run("it forces the next lookup to fetch", func(t *testing.T) {
		iss := testissuer.New(t)
		iss.AddKey(t, "k1")
		cache := newTestCache(t, iss)

		_, err := cache.SigningKeys(context.Background())
		require.NoError(t, err)

		cache.Invalidate()
		_, err = cache.SigningKeys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, iss.Fetches())
	})

	t.Run("it discards a fetch that started before the invalidation", func(t *testing.T) {
		var calls atomic.Int32
		started := make(chan struct{}, 1)
		release := make(chan struct{})

		cache, err := NewCache(WithFetcher(FetcherFunc(func(ctx context.Context) (jwk.Set, error) {
			if calls.Add(1) == 1 {
				started <- struct{}{}
				<-release
			}
			return jwk.NewSet(), nil
		})))
		require.NoError(t, err)

		done := make(chan error, 1)
		go func() {
			_, err := cache.SigningKeys(context.Background())
			done <- err
		}()

		<-started
		cache.Invalidate()
		close(release)
		require.NoError(t, <-done)

		_, err = cache.SigningKeys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})
}

type fetchRecorder struct {
	mu      sync.Mutex
	results []string
}

func (r *fetchRecorder) RecordJWKSFetch(result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestCache_Metrics(t *testing.T) {
	iss := testissuer.New(t)
	iss.AddKey(t, "k1")
	recorder := &fetchRecorder{}
	cache := newTestCache(t, iss, WithMetrics(recorder))

	_, err := cache.SigningKeys(context.Background())
	require.NoError(t, err)

	iss.SetUnavailable(http.StatusInternalServerError)
	cache.Invalidate()
	_, err = cache.SigningKeys(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"success", "error"}, recorder.results)
}
