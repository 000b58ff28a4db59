package validator

import (
	"encoding/json"
	"math"
	"time"
)

// ClaimSet is the full decoded payload of a verified token. Each call to
// ValidateToken returns a new map.
type ClaimSet map[string]any

// String returns the claim name if it is a string.
func (c ClaimSet) String(name string) (string, bool) {
	s, ok := c[name].(string)
	return s, ok
}

// Subject returns the sub claim.
func (c ClaimSet) Subject() string {
	s, _ := c.String("sub")
	return s
}

// Name returns the name claim.
func (c ClaimSet) Name() string {
	s, _ := c.String("name")
	return s
}

// PreferredUsername returns the preferred_username claim.
func (c ClaimSet) PreferredUsername() string {
	s, _ := c.String("preferred_username")
	return s
}

// Issuer returns the iss claim.
func (c ClaimSet) Issuer() string {
	s, _ := c.String("iss")
	return s
}

// Audience returns the aud claim, which may be a string or an array.
func (c ClaimSet) Audience() []string {
	switch aud := c["aud"].(type) {
	case string:
		return []string{aud}
	case []any:
		out := make([]string, 0, len(aud))
		for _, v := range aud {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return aud
	default:
		return nil
	}
}

// ExpiresAt returns the exp claim.
func (c ClaimSet) ExpiresAt() (time.Time, bool) {
	return c.numericDate("exp")
}

// IssuedAt returns the iat claim.
func (c ClaimSet) IssuedAt() (time.Time, bool) {
	return c.numericDate("iat")
}

func (c ClaimSet) numericDate(name string) (time.Time, bool) {
	var seconds float64
	switch v := c[name].(type) {
	case float64:
		seconds = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		seconds = f
	case int64:
		seconds = float64(v)
	default:
		return time.Time{}, false
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
}

func decodeClaims(payload []byte) (ClaimSet, error) {
	claims := make(ClaimSet)
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}
