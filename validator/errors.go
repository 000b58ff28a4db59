package validator

import "errors"

// ErrAuthenticationFailed is the outer classification shared by every
// ValidationError, so callers that need a single error type can check
// errors.Is(err, ErrAuthenticationFailed) and still read the Kind.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Kind classifies why a token was rejected.
type Kind int

// Validation failure kinds.
const (
	KindMalformedToken Kind = iota + 1
	KindUnknownSigningKey
	KindKeySourceUnavailable
	KindTokenExpired
	KindInvalidAudience
	KindInvalidIssuer
	KindInvalidSignatureOrFormat
	KindAuthNotConfigured
)

// Machine-readable error codes, one per Kind.
const (
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeJWKSKeyNotFound  = "jwks_key_not_found"
	ErrorCodeJWKSFetchFailed  = "jwks_fetch_failed"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeInvalidAudience  = "invalid_audience"
	ErrorCodeInvalidIssuer    = "invalid_issuer"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeConfigInvalid    = "config_invalid"
)

var kindNames = map[Kind]string{
	KindMalformedToken:           "MalformedToken",
	KindUnknownSigningKey:        "UnknownSigningKey",
	KindKeySourceUnavailable:     "KeySourceUnavailable",
	KindTokenExpired:             "TokenExpired",
	KindInvalidAudience:          "InvalidAudience",
	KindInvalidIssuer:            "InvalidIssuer",
	KindInvalidSignatureOrFormat: "InvalidSignatureOrFormat",
	KindAuthNotConfigured:        "AuthNotConfigured",
}

var kindCodes = map[Kind]string{
	KindMalformedToken:           ErrorCodeTokenMalformed,
	KindUnknownSigningKey:        ErrorCodeJWKSKeyNotFound,
	KindKeySourceUnavailable:     ErrorCodeJWKSFetchFailed,
	KindTokenExpired:             ErrorCodeTokenExpired,
	KindInvalidAudience:          ErrorCodeInvalidAudience,
	KindInvalidIssuer:            ErrorCodeInvalidIssuer,
	KindInvalidSignatureOrFormat: ErrorCodeInvalidSignature,
	KindAuthNotConfigured:        ErrorCodeConfigInvalid,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Code returns the machine-readable code for k, e.g. "token_expired".
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "unknown"
}

// PerToken reports whether k describes a problem with the presented token
// rather than with the validator or its key source.
func (k Kind) PerToken() bool {
	switch k {
	case KindKeySourceUnavailable, KindAuthNotConfigured:
		return false
	default:
		return true
	}
}

// ValidationError is returned for every rejected token. It never carries
// claims.
type ValidationError struct {
	// Kind classifies the failure.
	Kind Kind

	// Detail is a human-readable description, safe to return to clients.
	Detail string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is allows the error to be compared with ErrAuthenticationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// Code returns the machine-readable code of the error's Kind.
func (e *ValidationError) Code() string {
	return e.Kind.Code()
}

// NewValidationError creates a new ValidationError.
func NewValidationError(kind Kind, detail string, err error) *ValidationError {
	return &ValidationError{Kind: kind, Detail: detail, Err: err}
}

// KindOf returns the Kind of the first ValidationError in err's chain.
func KindOf(err error) (Kind, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Kind, true
	}
	return 0, false
}
