// Package jwtgin adapts the JWT middleware to gin.
package jwtgin

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	jwtmiddleware "github.com/entraguard/go-jwt-middleware"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// DefaultClaimsKey is the gin context key the claims are stored under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type ginContextKey struct{}

type config struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
	middleware   []jwtmiddleware.Option
}

// New creates a gin middleware for JWT authentication. v is typically a
// *validator.Validator; it is shared by every request and must be safe for
// concurrent use.
func New(v jwtmiddleware.TokenValidator, opts ...Option) (gin.HandlerFunc, error) {
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
			c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok {
				jwtmiddleware.DefaultErrorHandler(w, r, err)
				return
			}
			cfg.errorHandler(c, err)
		}),
	}, cfg.middleware...)

	middleware, err := jwtmiddleware.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		passed := false
		var next http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r

			if claims, err := jwtmiddleware.Claims(r.Context()); err == nil {
				c.Set(cfg.contextKey, claims)
			}

			c.Next()
		}

		r := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		middleware.CheckJWT(next).ServeHTTP(c.Writer, r)

		if !passed {
			c.Abort()
		}
	}, nil
}

func defaultErrorHandler(c *gin.Context, err error) {
	jwtmiddleware.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}

// GetClaims returns the claims stored under contextKey, or under
// DefaultClaimsKey when contextKey is empty.
func GetClaims(c *gin.Context, contextKey string) (validator.ClaimSet, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	claims, ok := value.(validator.ClaimSet)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
