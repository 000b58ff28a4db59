// Package core provides framework-agnostic token checking that the HTTP,
// gin, echo and gRPC adapters share.
//
// The Core type wraps a token validator with the policy every transport
// needs: what to do with a missing token, and how to log, measure and trace
// each check.
package core

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/entraguard/go-jwt-middleware/validator"
)

// Validator defines the interface for token validation.
// *validator.Validator implements it.
type Validator interface {
	ValidateToken(ctx context.Context, token string) (validator.ClaimSet, error)
}

// Logger defines an optional logging interface for the core middleware.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives one observation per checked request.
type Metrics interface {
	RecordValidation(outcome string, duration time.Duration)
}

// Core is the framework-agnostic token checking engine.
type Core struct {
	validator           Validator
	credentialsOptional bool
	logger              Logger
	metrics             Metrics
	tracer              trace.Tracer
}

// CheckToken validates a token string and returns the verified claims.
//
//   - If token is empty and credentials are optional, returns (nil, nil)
//   - If token is empty and credentials are required, returns ErrJWTMissing
//   - Otherwise, returns the validator's result unchanged
func (c *Core) CheckToken(ctx context.Context, token string) (validator.ClaimSet, error) {
	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "jwtmiddleware.CheckToken", trace.WithSpanKind(trace.SpanKindInternal))
		defer span.End()

		claims, err := c.checkToken(ctx, token)
		span.SetAttributes(attribute.String("auth.outcome", Outcome(err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, Outcome(err))
		}
		return claims, err
	}

	return c.checkToken(ctx, token)
}

func (c *Core) checkToken(ctx context.Context, token string) (validator.ClaimSet, error) {
	if token == "" {
		if c.credentialsOptional {
			if c.logger != nil {
				c.logger.Debug("No token provided, but credentials are optional")
			}
			c.record(OutcomeAnonymous, 0)
			return nil, nil
		}

		if c.logger != nil {
			c.logger.Warn("No token provided and credentials are required")
		}
		c.record(ErrorCodeTokenMissing, 0)
		return nil, ErrJWTMissing
	}

	start := time.Now()
	claims, err := c.validator.ValidateToken(ctx, token)
	duration := time.Since(start)
	c.record(Outcome(err), duration)

	if err != nil {
		if c.logger != nil {
			kind, _ := validator.KindOf(err)
			if kind.PerToken() {
				c.logger.Warn("Token validation failed", "kind", kind.String(), "error", err, "duration", duration)
			} else {
				c.logger.Error("Token validation failed", "kind", kind.String(), "error", err, "duration", duration)
			}
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug("Token validated successfully", "sub", claims.Subject(), "duration", duration)
	}

	return claims, nil
}

func (c *Core) record(outcome string, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordValidation(outcome, duration)
	}
}
