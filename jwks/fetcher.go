package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/entraguard/go-jwt-middleware/internal/oidc"
)

// maxJWKSSize bounds the JWKS response body. Real documents are a few KB.
const maxJWKSSize = 1 << 20

// errJWKSTooLarge is returned when the JWKS body exceeds maxJWKSSize.
var errJWKSTooLarge = errors.New("JWKS response exceeds 1 MiB")

// Fetcher retrieves a JWKS document from the key source.
type Fetcher interface {
	Fetch(ctx context.Context) (jwk.Set, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (jwk.Set, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) (jwk.Set, error) {
	return f(ctx)
}

// httpFetcher GETs the JWKS document over HTTP. When only an issuer URL is
// known the jwks_uri is discovered once and remembered for later fetches.
type httpFetcher struct {
	client    *http.Client
	jwksURI   *url.URL
	issuerURL *url.URL

	mu         sync.Mutex
	discovered string
}

func (f *httpFetcher) Fetch(ctx context.Context) (jwk.Set, error) {
	jwksURI, err := f.resolveJWKSURI(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request returned status %d, expected 200", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS: %w", err)
	}
	if len(body) > maxJWKSSize {
		return nil, errJWKSTooLarge
	}

	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	return set, nil
}

func (f *httpFetcher) resolveJWKSURI(ctx context.Context) (string, error) {
	if f.jwksURI != nil {
		return f.jwksURI.String(), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.discovered != "" {
		return f.discovered, nil
	}

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, f.client, *f.issuerURL)
	if err != nil {
		return "", err
	}
	if _, err := url.Parse(endpoints.JWKSURI); err != nil {
		return "", fmt.Errorf("could not parse JWKS URI from well known endpoints: %w", err)
	}
	f.discovered = endpoints.JWKSURI

	return f.discovered, nil
}
