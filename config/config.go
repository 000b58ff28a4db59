// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/entraguard/go-jwt-middleware/validator"
)

// devOrigin is the local frontend dev server, always allowed by CORS.
const devOrigin = "http://localhost:5173"

// Config for the API server. Defaults are provided via struct tags.
type Config struct {
	Auth AuthConfig

	// HTTPAddr to listen on. ENV: HTTP_ADDR
	HTTPAddr string `env:"HTTP_ADDR,default=:8000"`
	// FrontendDomain is allowed as a CORS origin over https. ENV: FRONTEND_DOMAIN
	FrontendDomain string `env:"FRONTEND_DOMAIN"`
	// LogLevel is a logrus level name. ENV: LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// OTLPEndpoint enables span export over OTLP/gRPC when set. ENV: OTEL_EXPORTER_OTLP_ENDPOINT
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// AuthConfig describes the Entra ID application tokens are issued for.
type AuthConfig struct {
	// ClientID of the API's app registration. ENV: AZURE_CLIENT_ID
	ClientID string `env:"AZURE_CLIENT_ID"`
	// TenantID of the directory. ENV: AZURE_TENANT_ID
	TenantID string `env:"AZURE_TENANT_ID"`
	// Authority login host. ENV: AZURE_AUTHORITY
	Authority string `env:"AZURE_AUTHORITY,default=https://login.microsoftonline.com"`
	// Issuer overrides the derived issuer. ENV: AZURE_ISSUER
	Issuer string `env:"AZURE_ISSUER"`
	// JWKSURI overrides the derived key URL. ENV: AZURE_JWKS_URI
	JWKSURI string `env:"AZURE_JWKS_URI"`
	// ClockSkew tolerated on exp, nbf and iat. ENV: AUTH_CLOCK_SKEW
	ClockSkew time.Duration `env:"AUTH_CLOCK_SKEW,default=0s"`
	// FetchTimeout bounds one JWKS fetch. ENV: AUTH_FETCH_TIMEOUT
	FetchTimeout time.Duration `env:"AUTH_FETCH_TIMEOUT,default=10s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later. Missing Azure
// identifiers are not an error; see IsAuthEnabled.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.Auth.ClockSkew < 0 {
		return errors.New("AUTH_CLOCK_SKEW cannot be negative")
	}
	if c.Auth.ClockSkew > validator.MaxClockSkew {
		return fmt.Errorf("AUTH_CLOCK_SKEW cannot exceed %s", validator.MaxClockSkew)
	}
	if c.Auth.FetchTimeout <= 0 {
		return errors.New("AUTH_FETCH_TIMEOUT must be positive")
	}
	return nil
}

// IsAuthEnabled reports whether both Azure identifiers are set.
func (c *Config) IsAuthEnabled() bool {
	return c.ValidatorConfig().IsConfigured()
}

// ValidatorConfig maps the auth settings onto a validator.Config.
func (c *Config) ValidatorConfig() validator.Config {
	return validator.Config{
		ClientID:  strings.TrimSpace(c.Auth.ClientID),
		TenantID:  strings.TrimSpace(c.Auth.TenantID),
		Authority: strings.TrimSpace(c.Auth.Authority),
		Issuer:    strings.TrimSpace(c.Auth.Issuer),
		JWKSURI:   strings.TrimSpace(c.Auth.JWKSURI),
	}
}

// Level returns the parsed log level.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// AllowedOrigins lists the CORS origins for the frontend.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendDomain == "" {
		return []string{devOrigin}
	}
	return []string{"https://" + c.FrontendDomain, devOrigin}
}
