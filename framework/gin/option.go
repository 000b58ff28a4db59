package jwtgin

import (
	"github.com/gin-gonic/gin"

	jwtmiddleware "github.com/entraguard/go-jwt-middleware"
)

// Option defines a functional option for configuring the middleware
type Option func(*config)

// WithErrorHandler sets a custom error handler for the middleware. The
// handler must write a response; the chain is aborted afterwards.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithContextKey sets the gin context key the claims are stored under.
func WithContextKey(key string) Option {
	return func(cfg *config) {
		cfg.contextKey = key
	}
}

// WithMiddlewareOptions passes options through to the underlying
// jwtmiddleware.JWTMiddleware, e.g. jwtmiddleware.WithCredentialsOptional.
func WithMiddlewareOptions(opts ...jwtmiddleware.Option) Option {
	return func(cfg *config) {
		cfg.middleware = append(cfg.middleware, opts...)
	}
}
