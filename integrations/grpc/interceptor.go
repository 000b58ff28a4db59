package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/entraguard/go-jwt-middleware/core"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// JWTInterceptor provides JWT validation for gRPC servers.
type JWTInterceptor struct {
	core            *core.Core
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	logger          Logger

	coreBuilder *coreBuilder
}

// New creates a new gRPC JWT interceptor with the provided options.
// WithValidator option is required.
func New(opts ...Option) (*JWTInterceptor, error) {
	interceptor := &JWTInterceptor{
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
		coreBuilder:     &coreBuilder{},
	}

	for _, opt := range opts {
		if err := opt(interceptor); err != nil {
			return nil, err
		}
	}

	c, err := interceptor.coreBuilder.build()
	if err != nil {
		return nil, err
	}
	interceptor.core = c
	interceptor.coreBuilder = nil

	return interceptor, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that validates JWTs.
// It extracts the JWT from gRPC metadata, validates it, and makes the claims
// available in the request context.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping JWT validation for excluded method",
					"method", info.FullMethod)
			}
			return handler(ctx, req)
		}

		validatedCtx, err := i.validateRequest(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(validatedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that validates JWTs.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping JWT validation for excluded method",
					"method", info.FullMethod)
			}
			return handler(srv, ss)
		}

		validatedCtx, err := i.validateRequest(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          validatedCtx,
		})
	}
}

// validateRequest extracts and validates the JWT from the context.
func (i *JWTInterceptor) validateRequest(ctx context.Context, method string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("failed to extract token from gRPC metadata",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(validator.NewValidationError(
			validator.KindMalformedToken,
			"Invalid authorization metadata",
			err,
		))
	}

	claims, err := i.core.CheckToken(ctx, token)
	if err != nil {
		if i.logger != nil {
			i.logger.Debug("JWT validation failed",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(err)
	}

	if claims == nil {
		return ctx, nil
	}
	return core.SetClaims(ctx, claims), nil
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context with JWT claims.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
