package core

import (
	"errors"

	"github.com/entraguard/go-jwt-middleware/validator"
)

// Sentinel errors for token checking.
var (
	// ErrJWTMissing is returned when the JWT is missing from the request.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")

	// ErrValidatorNotSet is returned by New without WithValidator.
	ErrValidatorNotSet = errors.New("validator is required but not set (use WithValidator option)")
)

// Outcome labels reported to metrics and traces besides the validator's
// error codes.
const (
	OutcomeSuccess        = "success"
	OutcomeAnonymous      = "anonymous"
	OutcomeUnknown        = "unknown"
	ErrorCodeTokenMissing = "token_missing"
)

// Outcome returns a low-cardinality label for the result of a check.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, ErrJWTMissing) {
		return ErrorCodeTokenMissing
	}
	if kind, ok := validator.KindOf(err); ok {
		return kind.Code()
	}
	return OutcomeUnknown
}
