package jwtmiddleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/entraguard/go-jwt-middleware/core"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// JWTMiddleware authenticates net/http requests with bearer tokens.
type JWTMiddleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger

	// Temporary fields used during construction
	validator           TokenValidator
	credentialsOptional bool
	metrics             core.Metrics
	tracer              trace.Tracer
}

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from JWT validation.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new JWTMiddleware instance with the supplied options.
//
// Example:
//
//	middleware, err := jwtmiddleware.New(
//	    jwtmiddleware.WithValidator(v),
//	    jwtmiddleware.WithLogger(jwtmiddleware.NewLogrusLogger(log)),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
func New(opts ...Option) (*JWTMiddleware, error) {
	m := &JWTMiddleware{
		validateOnOptions: true,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.validator == nil {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrValidatorNil)
	}

	m.applyDefaults()

	if err := m.createCore(); err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}

	return m, nil
}

// createCore creates the core.Core instance with the configured options
func (m *JWTMiddleware) createCore() error {
	coreOpts := []core.Option{
		core.WithValidator(&validatorAdapter{validator: m.validator}),
		core.WithCredentialsOptional(m.credentialsOptional),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}
	if m.metrics != nil {
		coreOpts = append(coreOpts, core.WithMetrics(m.metrics))
	}
	if m.tracer != nil {
		coreOpts = append(coreOpts, core.WithTracer(m.tracer))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return err
	}
	m.core = c
	return nil
}

// applyDefaults sets default values for optional fields
func (m *JWTMiddleware) applyDefaults() {
	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}
}

// GetClaims retrieves claims from the context with type safety using generics.
//
// Example:
//
//	claims, err := jwtmiddleware.GetClaims[validator.ClaimSet](r.Context())
//	if err != nil {
//	    http.Error(w, "failed to get claims", http.StatusInternalServerError)
//	    return
//	}
//	fmt.Println(claims.PreferredUsername())
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// Claims returns the ClaimSet stored by CheckJWT.
func Claims(ctx context.Context) (validator.ClaimSet, error) {
	return core.Claims(ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after middleware has run).
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := core.GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}

// CheckJWT is the main JWTMiddleware function which performs the main logic. It
// is passed a http.Handler which will be called if the JWT passes validation.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping JWT validation for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}
		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			if m.logger != nil {
				m.logger.Debug("skipping JWT validation for OPTIONS request")
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// An extraction error means a credential was sent but could not
			// be read, which is not the same as a missing token.
			if m.logger != nil {
				m.logger.Warn("failed to extract token from request",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, &invalidError{details: validator.NewValidationError(
				validator.KindMalformedToken,
				"Invalid authorization header",
				err,
			)})
			return
		}

		claims, err := m.core.CheckToken(r.Context(), token)
		if err != nil {
			if m.logger != nil {
				m.logger.Debug("JWT validation failed",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			if errors.Is(err, ErrJWTMissing) {
				m.errorHandler(w, r, err)
				return
			}
			m.errorHandler(w, r, &invalidError{details: err})
			return
		}

		// If credentials are optional and no token was provided,
		// core.CheckToken returns (nil, nil), so we continue without setting claims
		if claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		r = r.Clone(core.SetClaims(r.Context(), claims))
		next.ServeHTTP(w, r)
	})
}
