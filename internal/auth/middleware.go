package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/metrics"
)

// unauthorizedBody is the only body sent for rejected tokens, whatever the cause.
var unauthorizedBody = map[string]string{"error": "unauthorized"}

// Middleware creates an authentication middleware. Requests without a valid
// bearer token are answered with 401 before reaching next. The verified
// identity is attached to the request context.
func Middleware(verifier Verifier, m *metrics.Metrics, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticate(r, verifier)
			if err != nil {
				reason := Reason(err)
				logger.Debug().
					Err(err).
					Str("reason", reason).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("bearer authentication failed")
				m.RecordAuthFailure(reason)
				writeAuthError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func authenticate(r *http.Request, verifier Verifier) (*Identity, error) {
	token, err := TokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	return verifier.Verify(token)
}

// writeAuthError writes the uniform 401 response.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set(WWWAuthenticateHeader, BearerScheme)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody)
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// GetIdentity retrieves the Identity from a request context.
func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

// UserIDFromContext returns the authenticated user ID.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	identity := GetIdentity(ctx)
	if identity == nil {
		return 0, false
	}
	return identity.UserID, true
}

// RequireIdentity is a helper to get the identity or return domain.ErrUnauthorized.
func RequireIdentity(ctx context.Context) (*Identity, error) {
	identity := GetIdentity(ctx)
	if identity == nil {
		return nil, domain.ErrUnauthorized
	}
	return identity, nil
}
