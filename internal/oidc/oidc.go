package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
)

// maxDocumentSize bounds the discovery document body.
const maxDocumentSize = 1 << 20

// WellKnownEndpoints holds the parts of the OpenID provider metadata
// needed to locate the signing keys.
type WellKnownEndpoints struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

// ErrMissingJWKSURI is returned when the discovery document has no jwks_uri.
var ErrMissingJWKSURI = errors.New("discovery document has no jwks_uri")

// WellKnownURL returns the openid-configuration location for an issuer.
func WellKnownURL(issuerURL url.URL) string {
	issuerURL.Path = path.Join(issuerURL.Path, ".well-known/openid-configuration")
	return issuerURL.String()
}

// GetWellKnownEndpointsFromIssuerURL fetches the discovery document of the
// passed in issuer and returns its endpoints.
func GetWellKnownEndpointsFromIssuerURL(
	ctx context.Context,
	client *http.Client,
	issuerURL url.URL,
) (*WellKnownEndpoints, error) {
	if client == nil {
		client = http.DefaultClient
	}
	wellKnown := WellKnownURL(issuerURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request to get well known endpoints: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get well known endpoints from url %s: %w", wellKnown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("well known endpoints request to %s returned status %d", wellKnown, resp.StatusCode)
	}

	var wkEndpoints WellKnownEndpoints
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDocumentSize)).Decode(&wkEndpoints); err != nil {
		return nil, fmt.Errorf("could not decode json body when getting well known endpoints: %w", err)
	}
	if wkEndpoints.JWKSURI == "" {
		return nil, ErrMissingJWKSURI
	}

	return &wkEndpoints, nil
}
