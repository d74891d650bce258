package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a session token.
type Claims struct {
	// Extra holds caller-supplied claims. They are informational only and
	// never used for authorization.
	Extra map[string]any `json:"ext,omitempty"`

	jwt.RegisteredClaims
}

// Token is an issued session token.
type Token struct {
	// Value is the compact serialized JWS.
	Value string `json:"token"`

	// ID is the unique token identifier (jti).
	ID string `json:"-"`

	// ExpiresAt is the absolute expiry.
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity is the verified caller attached to a request context.
type Identity struct {
	// UserID is the token subject.
	UserID int64

	// TokenID is the jti of the presented token.
	TokenID string

	// ExpiresAt is the expiry of the presented token.
	ExpiresAt time.Time

	// Extra holds the informational claims the token was issued with.
	Extra map[string]any
}
