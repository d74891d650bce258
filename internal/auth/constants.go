// Package auth provides bearer token authentication for Monedero.
package auth

// HTTP header names and values.
const (
	// AuthorizationHeader carries the bearer token.
	AuthorizationHeader = "Authorization"

	// WWWAuthenticateHeader is set on 401 responses.
	WWWAuthenticateHeader = "WWW-Authenticate"

	// BearerScheme is the authorization scheme for session tokens.
	BearerScheme = "Bearer"
)

// Token signing constants.
const (
	// SigningAlgorithm is the only JWS algorithm issued and accepted.
	SigningAlgorithm = "HS256"

	// MinSecretLength is the minimum length of the signing secret.
	MinSecretLength = 32
)

// Failure reasons, recorded in logs and metrics but never sent to clients.
const (
	ReasonMissing   = "missing"
	ReasonMalformed = "malformed"
	ReasonExpired   = "expired"
	ReasonInvalid   = "invalid"
)

// contextKey is the type for context keys in this package.
type contextKey string

// identityContextKey holds the verified *Identity.
const identityContextKey contextKey = "auth.identity"
