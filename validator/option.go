package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

// MaxClockSkew bounds WithAllowedClockSkew.
const MaxClockSkew = 300 * time.Second

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// supportedAlgorithms are the asymmetric algorithms a caller may allow.
// HMAC and "none" are never accepted.
var supportedAlgorithms = map[jwa.SignatureAlgorithm]bool{
	jwa.RS256: true,
	jwa.RS384: true,
	jwa.RS512: true,
	jwa.PS256: true,
	jwa.PS384: true,
	jwa.PS512: true,
	jwa.ES256: true,
	jwa.ES384: true,
	jwa.ES512: true,
}

// WithAllowedAlgorithms replaces the signing algorithm allow-list.
// Defaults to RS256, which is what Entra ID signs access tokens with.
func WithAllowedAlgorithms(algs ...jwa.SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if len(algs) == 0 {
			return errors.New("at least one algorithm is required")
		}
		allowed := make(map[jwa.SignatureAlgorithm]bool, len(algs))
		for _, alg := range algs {
			if !supportedAlgorithms[alg] {
				return fmt.Errorf("unsupported signature algorithm: %s", alg)
			}
			allowed[alg] = true
		}
		v.allowedAlgorithms = allowed
		return nil
	}
}

// WithAllowedClockSkew is an option which sets up the allowed clock skew
// for the time based claims. It must be between 0 and 300 seconds.
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		if skew > MaxClockSkew {
			return fmt.Errorf("clock skew cannot exceed %s", MaxClockSkew)
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithClock sets the time source. Tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.clock = now
		return nil
	}
}

// WithLogger sets a logger for validation decisions.
func WithLogger(logger Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}
