package grpc

import (
	"context"

	"github.com/entraguard/go-jwt-middleware/core"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// Claims returns the ClaimSet stored by the interceptor.
//
// Example:
//
//	claims, err := jwtgrpc.Claims(ctx)
//	if err != nil {
//	    return nil, status.Error(codes.Internal, "failed to get claims")
//	}
//	userID := claims.Subject()
func Claims(ctx context.Context) (validator.ClaimSet, error) {
	return core.Claims(ctx)
}

// GetClaims retrieves claims from the context with type safety using generics.
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// MustGetClaims retrieves claims from the context or panics.
// Use only when you are certain claims exist (e.g., after interceptor has run).
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
