package auth

import (
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
)

// Token is a bearer token issued by the SuiteCRM token endpoint.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the token is usable now.
func (t *Token) Valid() bool {
	return t.ValidAt(time.Now())
}

// ValidAt reports whether the token is usable at now. Tokens expiring within
// TokenExpirationBuffer count as expired. A token without an expiry is valid
// until the server rejects it.
func (t *Token) ValidAt(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return now.Add(constants.TokenExpirationBuffer).Before(t.ExpiresAt)
}

// tokenFromOAuth2 converts a token returned by x/oauth2.
func tokenFromOAuth2(token *oauth2.Token, now time.Time) *Token {
	converted := &Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	if converted.TokenType == "" {
		converted.TokenType = constants.TokenTypeBearer
	}

	if !token.Expiry.IsZero() {
		converted.ExpiresIn = int(token.Expiry.Sub(now).Seconds())
	}

	return converted
}
