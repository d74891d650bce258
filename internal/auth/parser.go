package auth

import (
	"net/http"
	"strings"
)

// ParseBearer extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, BearerScheme) {
		return "", ErrInvalidAuthorizationHeader
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// TokenFromRequest extracts the bearer token from r.
func TokenFromRequest(r *http.Request) (string, error) {
	return ParseBearer(r.Header.Get(AuthorizationHeader))
}
