package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Email  string
	// JTI identifies the login session; generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT presented by authenticated shoppers.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// LoginID returns the login-session identifier carried in the token. Tokens
// minted without a jti fall back to <subject>:<issued-at unix seconds>, which
// is stable for one token and differs between logins.
func (c *AccessTokenClaims) LoginID() string {
	if c == nil {
		return ""
	}
	if c.ID != "" {
		return c.ID
	}
	subject := c.Subject
	if subject == "" {
		subject = c.UserID
	}
	if subject == "" || c.IssuedAt == nil {
		return ""
	}
	return subject + ":" + strconv.FormatInt(c.IssuedAt.Unix(), 10)
}
