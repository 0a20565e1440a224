package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the admin API puts in its access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// PeekClaims decodes the claims of an access token WITHOUT verifying its signature.
// The result is only used for display; opaque (non-JWT) tokens give empty Claims.
func PeekClaims(accessToken string) Claims {
	var claims Claims
	if strings.Count(accessToken, ".") != 2 {
		return claims
	}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return Claims{}
	}
	return claims
}

// Expiry returns the exp claim, or the zero time when the token carries none.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
