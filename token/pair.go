package token

import (
	"context"

	"golang.org/x/oauth2"
)

// Fixed storage names for the two halves of a Pair.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// Pair is the access/refresh credential pair issued by /auth/login and /auth/refresh-token.
// Both values are opaque to the client.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether neither token is set.
func (p Pair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

func (p Pair) HasAccess() bool {
	return p.AccessToken != ""
}

func (p Pair) HasRefresh() bool {
	return p.RefreshToken != ""
}

// AsOAuth2 converts the pair into an oauth2.Token so callers can use SetAuthHeader.
func AsOAuth2(p Pair) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
	}
}

// Store persists the token pair.
// Set and Clear always write both halves together; Get on empty storage returns a zero Pair.
type Store interface {
	Get(ctx context.Context) (Pair, error)
	Set(ctx context.Context, pair Pair) error
	Clear(ctx context.Context) error
}
