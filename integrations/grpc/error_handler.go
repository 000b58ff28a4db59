package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/entraguard/go-jwt-middleware/core"
	"github.com/entraguard/go-jwt-middleware/validator"
)

// ErrorHandler converts validation errors to gRPC status errors.
type ErrorHandler func(error) error

// DefaultErrorHandler maps JWT validation errors to gRPC status codes.
// Every rejected token is Unauthenticated, including one whose signing keys
// could not be fetched. A validator without client or tenant id is Internal.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, core.ErrJWTMissing) {
		return status.Error(codes.Unauthenticated, "missing credentials")
	}

	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Kind == validator.KindAuthNotConfigured {
			return status.Error(codes.Internal, validationErr.Detail)
		}
		return status.Error(codes.Unauthenticated, validationErr.Detail)
	}

	return status.Error(codes.Unauthenticated, "invalid or malformed token")
}
