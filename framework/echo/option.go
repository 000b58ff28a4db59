package jwtecho

import (
	"github.com/labstack/echo/v4"

	jwtmiddleware "github.com/entraguard/go-jwt-middleware"
)

// Option is a function that configures the middleware
type Option func(*config)

// WithErrorHandler sets a custom error handler. Its return value is
// returned from the middleware, so echo's HTTPErrorHandler can render it.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store claims
func WithContextKey(key string) Option {
	return func(cfg *config) {
		cfg.contextKey = key
	}
}

// WithMiddlewareOptions passes options through to the underlying
// jwtmiddleware.JWTMiddleware.
func WithMiddlewareOptions(opts ...jwtmiddleware.Option) Option {
	return func(cfg *config) {
		cfg.middleware = append(cfg.middleware, opts...)
	}
}
