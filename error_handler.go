package jwtmiddleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/entraguard/go-jwt-middleware/core"
	"github.com/entraguard/go-jwt-middleware/validator"
)

var (
	// ErrJWTMissing is returned when the JWT is missing.
	ErrJWTMissing = core.ErrJWTMissing

	// ErrJWTInvalid is returned when the JWT is invalid.
	ErrJWTInvalid = errors.New("jwt invalid")
)

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
}

// ErrorHandler is a handler which is called when an error occurs in the
// JWTMiddleware. It determines the response when a token is missing or
// invalid. The err can be checked with errors.Is against ErrJWTMissing and
// ErrJWTInvalid, and with validator.KindOf for the exact failure. A custom
// handler MUST respond to every error; not doing so lets the request through
// with an empty response.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation for the
// JWTMiddleware.
//
//   - missing token: 401 with a bare Bearer challenge (RFC 6750 section 3.1)
//   - any rejected token, including one whose key could not be fetched: 401
//     with error="invalid_token"
//   - a validator without client or tenant id: 500 "Auth not initialized"
//   - anything else: 500
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")

	status, resp := errorResponse(err)
	switch {
	case errors.Is(err, ErrJWTMissing):
		w.Header().Set("WWW-Authenticate", "Bearer")
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error=%q, error_description=%q`, resp.Error, resp.ErrorDescription))
	}

	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func errorResponse(err error) (int, ErrorResponse) {
	if errors.Is(err, ErrJWTMissing) {
		return http.StatusUnauthorized, ErrorResponse{
			Error:            "invalid_token",
			ErrorDescription: "Not authenticated",
			ErrorCode:        core.ErrorCodeTokenMissing,
		}
	}

	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		if validationErr.Kind == validator.KindAuthNotConfigured {
			return http.StatusInternalServerError, ErrorResponse{
				Error:            "server_error",
				ErrorDescription: validationErr.Detail,
				ErrorCode:        validationErr.Code(),
			}
		}
		return http.StatusUnauthorized, ErrorResponse{
			Error:            "invalid_token",
			ErrorDescription: validationErr.Detail,
			ErrorCode:        validationErr.Code(),
		}
	}

	if errors.Is(err, ErrJWTInvalid) {
		return http.StatusUnauthorized, ErrorResponse{
			Error:            "invalid_token",
			ErrorDescription: "JWT is invalid",
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error:            "server_error",
		ErrorDescription: "Something went wrong while checking the JWT.",
	}
}

// invalidError handles wrapping a JWT validation error with
// the concrete error ErrJWTInvalid. We do not expose this
// publicly because the interface methods of Is and Unwrap
// should give the user all they need.
type invalidError struct {
	details error
}

// Is allows the error to support equality to ErrJWTInvalid.
func (e *invalidError) Is(target error) bool {
	return target == ErrJWTInvalid
}

// Error returns a string representation of the error.
func (e *invalidError) Error() string {
	return fmt.Sprintf("%s: %s", ErrJWTInvalid, e.details)
}

// Unwrap allows the error to support equality to the
// underlying error and not just ErrJWTInvalid.
func (e *invalidError) Unwrap() error {
	return e.details
}
