package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entraguard/go-jwt-middleware/validator"
)

func TestLoad(t *testing.T) {
	t.Run("it applies defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8000", cfg.HTTPAddr)
		assert.Equal(t, "https://login.microsoftonline.com", cfg.Auth.Authority)
		assert.Equal(t, 10*time.Second, cfg.Auth.FetchTimeout)
		assert.Zero(t, cfg.Auth.ClockSkew)
		assert.Equal(t, logrus.InfoLevel, cfg.Level())
		assert.False(t, cfg.IsAuthEnabled())
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins())
	})

	t.Run("it reads the environment", func(t *testing.T) {
		t.Setenv("AZURE_CLIENT_ID", "client")
		t.Setenv("AZURE_TENANT_ID", "contoso")
		t.Setenv("AUTH_CLOCK_SKEW", "30s")
		t.Setenv("AUTH_FETCH_TIMEOUT", "2s")
		t.Setenv("HTTP_ADDR", ":9000")
		t.Setenv("FRONTEND_DOMAIN", "app.example.com")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.True(t, cfg.IsAuthEnabled())
		assert.Equal(t, 30*time.Second, cfg.Auth.ClockSkew)
		assert.Equal(t, 2*time.Second, cfg.Auth.FetchTimeout)
		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, logrus.DebugLevel, cfg.Level())
		assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.AllowedOrigins())

		vc := cfg.ValidatorConfig()
		assert.Equal(t, "client", vc.ClientID)
		assert.Equal(t, "https://login.microsoftonline.com/contoso/v2.0", vc.ExpectedIssuer())
	})

	t.Run("it trims padded identifiers", func(t *testing.T) {
		t.Setenv("AZURE_CLIENT_ID", "client ")
		t.Setenv("AZURE_TENANT_ID", " contoso")
		t.Setenv("AUTH_CLOCK_SKEW", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		vc := cfg.ValidatorConfig()
		assert.Equal(t, "client", vc.ClientID)
		assert.Equal(t, "https://login.microsoftonline.com/contoso/v2.0", vc.ExpectedIssuer())
		assert.Equal(t, validator.MaxClockSkew, cfg.Auth.ClockSkew)
	})

	t.Run("it reports auth disabled with only one identifier", func(t *testing.T) {
		t.Setenv("AZURE_CLIENT_ID", "client")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.IsAuthEnabled())
	})

	t.Run("it rejects invalid values", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
			want  string
		}{
			{"bad log level", "LOG_LEVEL", "loud", "invalid LOG_LEVEL"},
			{"negative skew", "AUTH_CLOCK_SKEW", "-1s", "cannot be negative"},
			{"skew above the ceiling", "AUTH_CLOCK_SKEW", "301s", "AUTH_CLOCK_SKEW cannot exceed 5m0s"},
			{"zero timeout", "AUTH_FETCH_TIMEOUT", "0s", "must be positive"},
			{"unparsable duration", "AUTH_FETCH_TIMEOUT", "soon", "decode environment"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Setenv(tt.key, tt.value)
				_, err := Load()
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})
}
