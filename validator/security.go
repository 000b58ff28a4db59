package validator

import (
	"errors"
	"strings"
)

var (
	// ErrExcessiveTokenDots is returned when a token contains too many dots.
	ErrExcessiveTokenDots = errors.New("token contains excessive dots")

	// ErrTokenTooLarge is returned for tokens over maxTokenSize.
	ErrTokenTooLarge = errors.New("token exceeds maximum size (1MB)")
)

const (
	// maxTokenDots is the maximum number of dots allowed in a token. A
	// compact JWS has 2; anything past 5 is not a JOSE object at all.
	maxTokenDots = 5

	// maxTokenSize rejects tokens before any decoding. Real tokens are a
	// few KB.
	maxTokenSize = 1 << 20
)

// validateTokenFormat rejects obviously hostile input before it reaches the
// JOSE parser.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) > maxTokenSize {
		return ErrTokenTooLarge
	}
	if strings.Count(tokenString, ".") > maxTokenDots {
		return ErrExcessiveTokenDots
	}
	return nil
}
