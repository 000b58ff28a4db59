package validator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/entraguard/go-jwt-middleware/jwks"
)

// KeyResolver returns the verification key published under a kid.
// *jwks.Cache implements it.
type KeyResolver interface {
	SigningKey(ctx context.Context, kid string) (jwk.Key, error)
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Validator verifies bearer tokens against one issuer and audience.
// It holds no per-call state and is safe for concurrent use.
type Validator struct {
	config    Config
	configErr error
	issuer    string
	keys      KeyResolver

	allowedAlgorithms map[jwa.SignatureAlgorithm]bool
	allowedClockSkew  time.Duration
	clock             func() time.Time
	logger            Logger
}

// New sets up a new Validator.
//
// Surrounding whitespace is trimmed from every Config field.
//
// An unusable Config is not a construction error: the Validator is built
// unconfigured and every ValidateToken call returns KindAuthNotConfigured.
// A nil KeyResolver is only accepted in that state.
//
// Example:
//
//	v, err := validator.New(
//	    validator.Config{ClientID: clientID, TenantID: tenantID},
//	    cache,
//	    validator.WithAllowedClockSkew(30*time.Second),
//	)
func New(cfg Config, keys KeyResolver, opts ...Option) (*Validator, error) {
	cfg = cfg.trimmed()
	v := &Validator{
		config:            cfg,
		configErr:         cfg.Validate(),
		keys:              keys,
		allowedAlgorithms: map[jwa.SignatureAlgorithm]bool{jwa.RS256: true},
		clock:             time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.configErr == nil {
		if keys == nil {
			return nil, errors.New("key resolver is required but was nil")
		}
		v.issuer = cfg.ExpectedIssuer()
	} else if v.logger != nil {
		v.logger.Warn("token validation is not configured, all tokens will be rejected", "error", v.configErr)
	}

	return v, nil
}

// Configured reports whether the validator can accept any token.
func (v *Validator) Configured() bool {
	return v.configErr == nil
}

// ValidateToken verifies tokenString and returns its claims. Signature,
// issuer, audience and expiry are checked in a single step; claims are
// only decoded after that step succeeds. Every failure is a
// *ValidationError.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (ClaimSet, error) {
	if v.configErr != nil {
		return nil, NewValidationError(KindAuthNotConfigured, "Auth not initialized", v.configErr)
	}

	if tokenString == "" {
		return nil, NewValidationError(KindMalformedToken, "Token is empty", nil)
	}
	if err := validateTokenFormat(tokenString); err != nil {
		return nil, NewValidationError(KindInvalidSignatureOrFormat, "Invalid token", err)
	}

	header, err := parseProtectedHeader(tokenString)
	if err != nil {
		return nil, NewValidationError(KindMalformedToken, "Token header could not be parsed", err)
	}

	kid := header.KeyID()
	if kid == "" {
		return nil, NewValidationError(KindMalformedToken, "Token missing key ID", nil)
	}

	alg := header.Algorithm()
	if !v.allowedAlgorithms[alg] {
		return nil, NewValidationError(
			KindInvalidSignatureOrFormat,
			"Invalid token",
			fmt.Errorf("signing algorithm %q is not allowed", alg),
		)
	}

	key, err := v.keys.SigningKey(ctx, kid)
	if err != nil {
		if errors.Is(err, jwks.ErrUnknownSigningKey) {
			return nil, NewValidationError(KindUnknownSigningKey, "Unable to find signing key", err)
		}
		return nil, NewValidationError(KindKeySourceUnavailable, "Unable to fetch signing keys", err)
	}
	if keyAlg := key.Algorithm().String(); keyAlg != "" && keyAlg != alg.String() {
		return nil, NewValidationError(
			KindInvalidSignatureOrFormat,
			"Invalid token",
			fmt.Errorf("token algorithm %q does not match key algorithm %q", alg, keyAlg),
		)
	}

	_, err = jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(alg, key),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.config.ClientID),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithAcceptableSkew(v.allowedClockSkew),
		jwt.WithClock(jwt.ClockFunc(v.clock)),
		jwt.WithContext(ctx),
	)
	if err != nil {
		validationErr := classifyVerificationError(err)
		if v.logger != nil {
			v.logger.Debug("token verification failed", "kid", kid, "kind", validationErr.Kind.String(), "error", err)
		}
		return nil, validationErr
	}

	msg, err := jws.Parse([]byte(tokenString))
	if err != nil {
		return nil, NewValidationError(KindInvalidSignatureOrFormat, "Invalid token", err)
	}
	claims, err := decodeClaims(msg.Payload())
	if err != nil {
		return nil, NewValidationError(KindInvalidSignatureOrFormat, "Invalid token", err)
	}

	if v.logger != nil {
		v.logger.Debug("token verified", "kid", kid, "sub", claims.Subject())
	}

	return claims, nil
}

// parseProtectedHeader decodes the first segment of a compact token. The
// payload and signature are left to jwt.Parse.
func parseProtectedHeader(tokenString string) (jws.Headers, error) {
	segment, _, _ := strings.Cut(tokenString, ".")
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode header: %w", err)
	}
	header := jws.NewHeaders()
	if err := json.Unmarshal(raw, header); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return header, nil
}

// classifyVerificationError maps jwx errors onto a Kind. Anything not
// recognised, including nbf or iat in the future, is a signature or format
// problem.
func classifyVerificationError(err error) *ValidationError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		return NewValidationError(KindTokenExpired, "Token has expired", err)
	case errors.Is(err, jwt.ErrInvalidAudience()):
		return NewValidationError(KindInvalidAudience, "Invalid token audience", err)
	case errors.Is(err, jwt.ErrInvalidIssuer()):
		return NewValidationError(KindInvalidIssuer, "Invalid token issuer", err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()), errors.Is(err, jwt.ErrInvalidIssuedAt()):
		return NewValidationError(KindInvalidSignatureOrFormat, "Token is not valid yet", err)
	default:
		return NewValidationError(KindInvalidSignatureOrFormat, "Invalid token", err)
	}
}
