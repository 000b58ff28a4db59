package jwtmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/entraguard/go-jwt-middleware/validator"
)

type validatorFunc func(ctx context.Context, token string) (validator.ClaimSet, error)

func (f validatorFunc) ValidateToken(ctx context.Context, token string) (validator.ClaimSet, error) {
	return f(ctx, token)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type countingMetrics struct{ outcomes []string }

func (m *countingMetrics) RecordValidation(outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func Test_New_OptionsValidation(t *testing.T) {
	validValidator := validatorFunc(func(context.Context, string) (validator.ClaimSet, error) {
		return validator.ClaimSet{"sub": "user-123"}, nil
	})

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "missing validator",
			opts:    []Option{},
			wantErr: ErrValidatorNil,
		},
		{
			name:    "nil validator",
			opts:    []Option{WithValidator(nil)},
			wantErr: ErrValidatorNil,
		},
		{
			name: "valid minimal configuration",
			opts: []Option{WithValidator(validValidator)},
		},
		{
			name:    "nil error handler",
			opts:    []Option{WithValidator(validValidator), WithErrorHandler(nil)},
			wantErr: ErrErrorHandlerNil,
		},
		{
			name:    "nil token extractor",
			opts:    []Option{WithValidator(validValidator), WithTokenExtractor(nil)},
			wantErr: ErrTokenExtractorNil,
		},
		{
			name:    "empty exclusion URLs",
			opts:    []Option{WithValidator(validValidator), WithExclusionURLs(nil)},
			wantErr: ErrExclusionURLsEmpty,
		},
		{
			name:    "nil logger",
			opts:    []Option{WithValidator(validValidator), WithLogger(nil)},
			wantErr: ErrLoggerNil,
		},
		{
			name:    "nil metrics",
			opts:    []Option{WithValidator(validValidator), WithMetrics(nil)},
			wantErr: ErrMetricsNil,
		},
		{
			name:    "nil tracer",
			opts:    []Option{WithValidator(validValidator), WithTracer(nil)},
			wantErr: ErrTracerNil,
		},
		{
			name: "all options",
			opts: []Option{
				WithValidator(validValidator),
				WithCredentialsOptional(true),
				WithValidateOnOptions(false),
				WithErrorHandler(DefaultErrorHandler),
				WithTokenExtractor(CookieTokenExtractor("jwt")),
				WithExclusionURLs([]string{"/health"}),
				WithLogger(nopLogger{}),
				WithMetrics(&countingMetrics{}),
				WithTracer(noop.NewTracerProvider().Tracer("test")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
}

func Test_WithExclusionURLs_FullURL(t *testing.T) {
	m, err := New(
		WithValidator(validatorFunc(func(context.Context, string) (validator.ClaimSet, error) {
			return nil, validator.NewValidationError(validator.KindMalformedToken, "Invalid token", nil)
		})),
		WithExclusionURLs([]string{"http://example.com/public?x=1"}),
	)
	require.NoError(t, err)

	handler := m.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/public?x=1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/public?x=2", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_WithMetrics_RecordsOutcomes(t *testing.T) {
	metrics := &countingMetrics{}
	calls := 0
	m, err := New(
		WithValidator(validatorFunc(func(_ context.Context, token string) (validator.ClaimSet, error) {
			calls++
			if token == "good" {
				return validator.ClaimSet{"sub": "user-123"}, nil
			}
			return nil, validator.NewValidationError(validator.KindTokenExpired, "Token has expired", nil)
		})),
		WithMetrics(metrics),
	)
	require.NoError(t, err)

	handler := m.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for _, header := range []string{"Bearer good", "Bearer bad", ""} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"success", "token_expired", "token_missing"}, metrics.outcomes)
}
