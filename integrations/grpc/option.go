package grpc

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/entraguard/go-jwt-middleware/core"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// Option configures the JWT interceptor.
type Option func(*JWTInterceptor) error

// Logger defines an optional logging interface compatible with log/slog.
// This is the same interface used by core for consistent logging across the stack.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenValidator is satisfied by *validator.Validator.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (validator.ClaimSet, error)
}

// Option errors.
var (
	ErrValidatorNil      = errors.New("validator cannot be nil")
	ErrLoggerNil         = errors.New("logger cannot be nil")
	ErrTokenExtractorNil = errors.New("token extractor cannot be nil")
	ErrErrorHandlerNil   = errors.New("error handler cannot be nil")
	ErrMetricsNil        = errors.New("metrics cannot be nil")
	ErrTracerNil         = errors.New("tracer cannot be nil")
)

// coreBuilder accumulates core options until New builds the core.Core.
type coreBuilder struct {
	validator           TokenValidator
	credentialsOptional bool
	logger              Logger
	metrics             core.Metrics
	tracer              trace.Tracer
}

func (b *coreBuilder) build() (*core.Core, error) {
	if b.validator == nil {
		return nil, ErrValidatorNil
	}

	opts := []core.Option{
		core.WithValidator(b.validator),
		core.WithCredentialsOptional(b.credentialsOptional),
	}
	if b.logger != nil {
		opts = append(opts, core.WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, core.WithMetrics(b.metrics))
	}
	if b.tracer != nil {
		opts = append(opts, core.WithTracer(b.tracer))
	}

	return core.New(opts...)
}

// WithValidator sets the JWT validator (REQUIRED).
//
// Example:
//
//	interceptor, _ := grpc.New(
//	    grpc.WithValidator(v),
//	    grpc.WithLogger(logger),
//	    grpc.WithCredentialsOptional(true),
//	)
func WithValidator(v TokenValidator) Option {
	return func(i *JWTInterceptor) error {
		if v == nil {
			return ErrValidatorNil
		}
		i.coreBuilder.validator = v
		return nil
	}
}

// WithCredentialsOptional allows requests without JWT tokens to proceed.
// When set to true, requests without tokens will not return an error,
// but the context will not contain any claims.
//
// Default: false (credentials required)
func WithCredentialsOptional(optional bool) Option {
	return func(i *JWTInterceptor) error {
		i.coreBuilder.credentialsOptional = optional
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor.
// The logger will be used throughout the validation flow in both interceptor and core.
func WithLogger(logger Logger) Option {
	return func(i *JWTInterceptor) error {
		if logger == nil {
			return ErrLoggerNil
		}
		i.coreBuilder.logger = logger
		i.logger = logger
		return nil
	}
}

// WithMetrics records one outcome per checked call.
func WithMetrics(metrics core.Metrics) Option {
	return func(i *JWTInterceptor) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		i.coreBuilder.metrics = metrics
		return nil
	}
}

// WithTracer wraps every check in an OpenTelemetry span.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *JWTInterceptor) error {
		if tracer == nil {
			return ErrTracerNil
		}
		i.coreBuilder.tracer = tracer
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor function.
// Default is MetadataTokenExtractor which extracts from "authorization" metadata.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *JWTInterceptor) error {
		if extractor == nil {
			return ErrTokenExtractorNil
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler function.
// Default is DefaultErrorHandler which maps errors to gRPC status codes.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *JWTInterceptor) error {
		if handler == nil {
			return ErrErrorHandlerNil
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods excludes specific gRPC methods from JWT validation.
// Methods should be provided in the format: "/package.Service/Method"
// Example: "/grpc.health.v1.Health/Check"
func WithExcludedMethods(methods ...string) Option {
	return func(i *JWTInterceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}
