package auth

import "time"

// AccessClaims represents the claims stored in a PASETO access token.
// v4.local tokens are encrypted, so clients cannot read them.
type AccessClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// IssuedToken is a freshly minted access token.
type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
