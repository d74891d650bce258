package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer creates session tokens.
type Issuer interface {
	Issue(userID int64, extra map[string]any) (*Token, error)
}

// Verifier validates session tokens.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// TokenManager issues and verifies HS256 session tokens.
// It holds no per-token state: verification needs only the signing secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// WithIssuer sets the iss claim written on issue and required on verify.
func WithIssuer(issuer string) TokenOption {
	return func(m *TokenManager) {
		m.issuer = issuer
	}
}

// NewTokenManager creates a TokenManager. The secret is copied and never changes.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d characters", ErrSecretTooShort, MinSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}

	m := &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for userID expiring TTL from now.
func (m *TokenManager) Issue(userID int64, extra map[string]any) (*Token, error) {
	now := m.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)
	id := uuid.NewString()

	claims := Claims{
		Extra: extra,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Value: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature and expiry of token and returns the identity it
// binds. It fails with exactly one of ErrTokenMalformed, ErrTokenExpired or
// ErrTokenInvalid.
func (m *TokenManager) Verify(token string) (*Identity, error) {
	if !wellFormed(token) {
		return nil, ErrTokenMalformed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{SigningAlgorithm}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
		jwt.WithStrictDecoding(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		// The signature is verified before claims, so an expiry error implies
		// an authentic token. Decoding errors past wellFormed come from altered
		// segments and count as invalid.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}

	return &Identity{
		UserID:    userID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Extra:     claims.Extra,
	}, nil
}

// wellFormed reports whether token has three non-empty dot separated
// base64url segments. Unused trailing bits are tolerated here and rejected by
// the strict decoder during verification.
func wellFormed(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := base64.RawURLEncoding.DecodeString(p); err != nil {
			return false
		}
	}
	return true
}

var (
	_ Issuer   = (*TokenManager)(nil)
	_ Verifier = (*TokenManager)(nil)
)
