package auth

import "errors"

// Authentication errors.
var (
	// ErrMissingToken indicates the request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidAuthorizationHeader indicates an Authorization header with a
	// scheme other than Bearer.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")

	// ErrTokenMalformed indicates the token is not a compact JWS.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenExpired indicates a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid indicates a token whose signature or claims do not verify.
	ErrTokenInvalid = errors.New("token is invalid")

	// ErrSecretTooShort indicates the signing secret is shorter than MinSecretLength.
	ErrSecretTooShort = errors.New("signing secret is too short")
)

// Reason maps an authentication error to its log and metric label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return ReasonMissing
	case errors.Is(err, ErrTokenMalformed), errors.Is(err, ErrInvalidAuthorizationHeader):
		return ReasonMalformed
	case errors.Is(err, ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonInvalid
	}
}
