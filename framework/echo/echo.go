// Package jwtecho adapts the JWT middleware to echo.
package jwtecho

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	jwtmiddleware "github.com/entraguard/go-jwt-middleware"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// DefaultClaimsKey is the echo context key the claims are stored under.
const DefaultClaimsKey = "jwt"

type (
	echoContextKey struct{}
	handlerErrKey  struct{}
)

type config struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
	middleware   []jwtmiddleware.Option
}

// New creates an echo middleware for JWT authentication.
func New(v jwtmiddleware.TokenValidator, opts ...Option) (echo.MiddlewareFunc, error) {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultClaimsKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	middlewareOpts := append([]jwtmiddleware.Option{
		jwtmiddleware.WithValidator(v),
		jwtmiddleware.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, ok := r.Context().Value(echoContextKey{}).(echo.Context)
			if !ok {
				jwtmiddleware.DefaultErrorHandler(w, r, err)
				return
			}
			if out, ok := r.Context().Value(handlerErrKey{}).(*error); ok {
				*out = cfg.errorHandler(c, err)
			}
		}),
	}, cfg.middleware...)

	middleware, err := jwtmiddleware.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr, handlerErr error
			var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)

				if claims, err := jwtmiddleware.Claims(r.Context()); err == nil {
					c.Set(cfg.contextKey, claims)
				}

				nextErr = next(c)
			}

			ctx := context.WithValue(c.Request().Context(), echoContextKey{}, c)
			ctx = context.WithValue(ctx, handlerErrKey{}, &handlerErr)
			middleware.CheckJWT(handler).ServeHTTP(c.Response(), c.Request().WithContext(ctx))

			if handlerErr != nil {
				return handlerErr
			}
			return nextErr
		}
	}, nil
}

func defaultErrorHandler(c echo.Context, err error) error {
	jwtmiddleware.DefaultErrorHandler(c.Response(), c.Request(), err)
	return nil
}

// GetClaims extracts the JWT claims from the echo context.
func GetClaims(c echo.Context, contextKey string) (validator.ClaimSet, bool) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, ok := c.Get(contextKey).(validator.ClaimSet)
	return claims, ok
}
