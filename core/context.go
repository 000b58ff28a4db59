package core

import (
	"context"
	"fmt"

	"github.com/entraguard/go-jwt-middleware/validator"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves claims from the context with type safety using generics.
//
// Example usage:
//
//	claims, err := core.GetClaims[validator.ClaimSet](ctx)
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: claims type assertion failed, got %T", ErrClaimsNotFound, val)
	}

	return claims, nil
}

// Claims is GetClaims for the ClaimSet the middleware stores.
func Claims(ctx context.Context) (validator.ClaimSet, error) {
	return GetClaims[validator.ClaimSet](ctx)
}

// SetClaims stores claims in the context.
// This is a helper function for adapters to set claims after validation.
func SetClaims(ctx context.Context, claims validator.ClaimSet) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
