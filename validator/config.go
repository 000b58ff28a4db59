package validator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultAuthority is the Microsoft Entra ID login host.
const DefaultAuthority = "https://login.microsoftonline.com"

// ErrNotConfigured is returned by Config.Validate when the client or tenant
// identifier is missing.
var ErrNotConfigured = errors.New("client id and tenant id are required")

// Config describes the tokens a Validator accepts. The zero value is valid
// but unconfigured.
type Config struct {
	// ClientID is the application (client) id. Tokens must carry it in aud.
	ClientID string

	// TenantID is the directory (tenant) id or domain.
	TenantID string

	// Authority is the login host. Defaults to DefaultAuthority.
	Authority string

	// Issuer overrides the derived {authority}/{tenant}/v2.0 issuer.
	Issuer string

	// JWKSURI overrides the derived {authority}/{tenant}/discovery/v2.0/keys.
	JWKSURI string
}

// trimmed returns c with surrounding whitespace removed from every field.
func (c Config) trimmed() Config {
	return Config{
		ClientID:  strings.TrimSpace(c.ClientID),
		TenantID:  strings.TrimSpace(c.TenantID),
		Authority: strings.TrimSpace(c.Authority),
		Issuer:    strings.TrimSpace(c.Issuer),
		JWKSURI:   strings.TrimSpace(c.JWKSURI),
	}
}

// IsConfigured reports whether both the client and the tenant are set.
func (c Config) IsConfigured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.TenantID) != ""
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if _, err := c.IssuerURL(); err != nil {
		return err
	}
	if _, err := c.JWKSURL(); err != nil {
		return err
	}
	return nil
}

func (c Config) authority() string {
	if c.Authority == "" {
		return DefaultAuthority
	}
	return strings.TrimRight(c.Authority, "/")
}

// ExpectedIssuer returns the iss value tokens must carry.
func (c Config) ExpectedIssuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return c.authority() + "/" + c.TenantID + "/v2.0"
}

// IssuerURL returns ExpectedIssuer parsed.
func (c Config) IssuerURL() (*url.URL, error) {
	return parseAbsolute("issuer", c.ExpectedIssuer())
}

// JWKSURL returns the URL the signing keys are published at.
func (c Config) JWKSURL() (*url.URL, error) {
	raw := c.JWKSURI
	if raw == "" {
		raw = c.authority() + "/" + c.TenantID + "/discovery/v2.0/keys"
	}
	return parseAbsolute("JWKS URI", raw)
}

func parseAbsolute(name, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s %q: must be an absolute URL", name, raw)
	}
	return u, nil
}
