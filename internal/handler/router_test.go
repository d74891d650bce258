package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/cache/memory"
	"github.com/prn-tf/monedero/internal/config"
	"github.com/prn-tf/monedero/internal/pkg/crypto"
	"github.com/prn-tf/monedero/internal/repository/sqlite"
	"github.com/prn-tf/monedero/internal/service"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, config.DatabaseConfig{Driver: "sqlite", Path: sqlite.MemoryPath}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Database.Close() })
	require.NoError(t, store.Migrator.Up(ctx))

	hasher, err := crypto.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager("handler-test-signing-secret-0123456789", time.Hour)
	require.NoError(t, err)

	cache := memory.NewCache()
	t.Cleanup(cache.Stop)

	svcs := service.NewServices(service.Deps{
		Repos:   store.Repos,
		Hasher:  hasher,
		Issuer:  tokens,
		Limiter: service.NewLoginLimiter(cache, 3, time.Minute, zerolog.Nop()),
		Logger:  zerolog.Nop(),
	})

	router := NewRouter(RouterConfig{
		Services:           svcs,
		Verifier:           tokens,
		Database:           store.Database,
		MaxBodySize:        4 << 10,
		CORSAllowedOrigins: []string{"https://app.example.com"},
		Logger:             zerolog.Nop(),
	})
	return &testServer{handler: router.Handler()}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) form(t *testing.T, method, path, token string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

// register creates a user and returns its token and id.
func (s *testServer) register(t *testing.T, email string) (string, int64) {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/registro", "", map[string]string{
		"name": "Ana", "surname": "Ruiz", "phone": "600", "email": email, "secret": "abcdef",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var body struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Token, body.User.ID
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), rr.Body.String())
	return m
}

func createdID(t *testing.T, rr *httptest.ResponseRecorder) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return int64(decodeMap(t, rr)["id"].(float64))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "healthy", decodeMap(t, rr)["status"])
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodPost, "/registro", "", map[string]string{
		"name": "Ana", "email": "Ana@Example.com", "secret": "abcdef",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	body := decodeMap(t, rr)
	require.NotEmpty(t, body["token"])
	require.NotEmpty(t, body["expires_at"])
	user := body["user"].(map[string]any)
	require.Equal(t, "ana@example.com", user["email"])
	require.NotContains(t, rr.Body.String(), "password")
	require.NotContains(t, rr.Body.String(), "$2a$")

	t.Run("duplicate email", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/register", "", map[string]string{
			"name": "Otra", "email": "ana@example.com", "secret": "ghijkl",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Equal(t, "email already registered", decodeMap(t, rr)["error"])
	})

	t.Run("validation details", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/registro", "", map[string]string{"email": "nope", "secret": "abc"})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		details := decodeMap(t, rr)["details"].(map[string]any)
		require.Contains(t, details, "name")
		require.Contains(t, details, "email")
		require.Contains(t, details, "secret")
	})

	t.Run("form encoded", func(t *testing.T) {
		rr := s.form(t, http.MethodPost, "/registro", "", url.Values{
			"name": {"Luis"}, "email": {"luis@example.com"}, "secret": {"abcdef"},
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/registro", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	_, id := s.register(t, "ana@example.com")

	rr := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "secret": "abcdef"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token := decodeMap(t, rr)["token"].(string)

	me := s.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, me.Code)
	require.Equal(t, float64(id), decodeMap(t, me)["id"])

	wrong := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "secret": "abcdefx"})
	unknown := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "bob@example.com", "secret": "abcdef"})
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLogin_TooManyAttempts(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ana@example.com")

	for i := 0; i < 3; i++ {
		rr := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "secret": "wrong!"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	rr := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "secret": "abcdef"})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "ana@example.com")

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-token"},
		{"tampered", token[:len(token)-2] + "xx"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rr := s.do(t, http.MethodGet, "/accounts", tc.token, nil)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.Equal(t, "unauthorized", decodeMap(t, rr)["error"])
			require.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestResourceOwnership(t *testing.T) {
	s := newTestServer(t)
	alice, aliceID := s.register(t, "alice@example.com")
	bob, _ := s.register(t, "bob@example.com")

	rr := s.do(t, http.MethodPost, "/accounts", alice, map[string]any{
		"name": "Wallet", "owner_id": 999, "initial_balance": "10.00",
	})
	id := createdID(t, rr)
	created := decodeMap(t, rr)
	require.Equal(t, float64(aliceID), created["owner_id"], "owner comes from the token")
	require.Equal(t, "EUR", created["currency"])
	require.NotEmpty(t, created["created_at"])

	path := fmt.Sprintf("/accounts/%d", id)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, bob, nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, path, bob, map[string]string{"name": "Mine"}).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, bob, nil).Code)

	list := s.do(t, http.MethodGet, "/accounts/", bob, nil)
	require.Equal(t, http.StatusOK, list.Code)
	require.JSONEq(t, "[]", list.Body.String())
	require.Equal(t, "0", list.Header().Get(TotalCountHeader))

	rr = s.do(t, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Wallet", decodeMap(t, rr)["name"])

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, alice, nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, alice, nil).Code)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/accounts/abc", alice, nil).Code)
}

func TestResourcePartialUpdate(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "ana@example.com")

	id := createdID(t, s.do(t, http.MethodPost, "/accounts", token, map[string]string{
		"name": "Bank", "type": "bank", "currency": "usd",
	}))

	rr := s.do(t, http.MethodPatch, fmt.Sprintf("/accounts/%d", id), token, map[string]string{"name": "Main bank"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decodeMap(t, rr)
	require.Equal(t, "Main bank", updated["name"])
	require.Equal(t, "bank", updated["type"])
	require.Equal(t, "USD", updated["currency"])

	rr = s.do(t, http.MethodPut, fmt.Sprintf("/accounts/%d", id), token, map[string]string{"type": "boat"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, decodeMap(t, rr)["details"], "type")
}

func TestRecords(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.register(t, "alice@example.com")
	bob, _ := s.register(t, "bob@example.com")

	account := createdID(t, s.do(t, http.MethodPost, "/accounts", alice, map[string]string{"name": "Cash"}))
	bobsAccount := createdID(t, s.do(t, http.MethodPost, "/accounts", bob, map[string]string{"name": "Cash"}))

	rr := s.form(t, http.MethodPost, "/records", alice, url.Values{
		"account_id":  {fmt.Sprint(account)},
		"kind":        {"expense"},
		"amount":      {"12.50"},
		"occurred_on": {"2025-03-10"},
	})
	record := createdID(t, rr)
	require.Equal(t, 12.5, decodeMap(t, rr)["amount"])

	createdID(t, s.do(t, http.MethodPost, "/records", alice, map[string]any{
		"account_id": account, "kind": "income", "amount": 100, "occurred_on": "2025-03-01",
	}))

	t.Run("reference owned by someone else", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/records", alice, map[string]any{
			"account_id": bobsAccount, "kind": "expense", "amount": "5",
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, decodeMap(t, rr)["details"], "account_id")
	})

	t.Run("list by date range", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/records?from=2025-03-05&to=2025-04-01", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var items []map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
		require.Len(t, items, 1)
		require.Equal(t, float64(record), items[0]["id"])

		bad := s.do(t, http.MethodGet, "/records?from=yesterday", alice, nil)
		require.Equal(t, http.StatusBadRequest, bad.Code)
	})

	t.Run("summary", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/records/summary?from=2025-03-01&to=2025-04-01", alice, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		summary := decodeMap(t, rr)
		require.Equal(t, 100.0, summary["income"])
		require.Equal(t, 12.5, summary["expense"])
		require.Equal(t, 87.5, summary["net"])
	})

	t.Run("balance", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, fmt.Sprintf("/accounts/%d/balance", account), alice, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		require.Equal(t, 87.5, decodeMap(t, rr)["balance"])

		require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, fmt.Sprintf("/accounts/%d/balance", account), bob, nil).Code)
	})

	t.Run("receipts disabled", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, fmt.Sprintf("/records/%d/receipt", record), alice, map[string]string{"content_type": "image/png"})
		require.Equal(t, http.StatusNotImplemented, rr.Code)
	})
}

func TestBudgetProgress(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "ana@example.com")

	account := createdID(t, s.do(t, http.MethodPost, "/accounts", token, map[string]string{"name": "Cash"}))
	category := createdID(t, s.do(t, http.MethodPost, "/categories", token, map[string]string{"name": "Food", "kind": "expense"}))
	budget := createdID(t, s.do(t, http.MethodPost, "/budgets", token, map[string]any{
		"name": "Food", "category_id": category, "amount": "200", "period": "monthly", "start_on": "2025-01-01",
	}))
	createdID(t, s.do(t, http.MethodPost, "/records", token, map[string]any{
		"account_id": account, "category_id": category, "kind": "expense", "amount": "50", "occurred_on": "2025-03-20",
	}))

	rr := s.do(t, http.MethodGet, fmt.Sprintf("/budgets/%d/progress?as_of=2025-03-25", budget), token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	progress := decodeMap(t, rr)
	require.Equal(t, "2025-03-01", progress["period_start"])
	require.Equal(t, "2025-04-01", progress["period_end"])
	require.Equal(t, 50.0, progress["spent"])
	require.Equal(t, float64(25), progress["percent"])
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register(t, "ana@example.com")

	rr := s.do(t, http.MethodPut, "/me", token, map[string]string{"phone": "611"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, "611", decodeMap(t, rr)["phone"])
	require.Equal(t, "Ana", decodeMap(t, rr)["name"])

	rr = s.do(t, http.MethodPut, "/me/password", token, map[string]string{"current_secret": "nope!!", "new_secret": "ghijkl"})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.do(t, http.MethodPut, "/me/password", token, map[string]string{"current_secret": "abcdef", "new_secret": "ghijkl"})
	require.Equal(t, http.StatusNoContent, rr.Code)

	login := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ana@example.com", "secret": "ghijkl"})
	require.Equal(t, http.StatusOK, login.Code)

	createdID(t, s.do(t, http.MethodPost, "/goals", token, map[string]string{"name": "Bike", "target_amount": "300"}))

	require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/me", token, map[string]string{"secret": "abcdef"}).Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/me", token, map[string]string{"secret": "ghijkl"}).Code)

	// The token outlives the user: reads find nothing and writes are refused.
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/me", token, nil).Code)
	goals := s.do(t, http.MethodGet, "/goals", token, nil)
	require.Equal(t, http.StatusOK, goals.Code)
	require.JSONEq(t, "[]", goals.Body.String())
	rr = s.do(t, http.MethodPost, "/goals", token, map[string]string{"name": "Car", "target_amount": "900"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodPost, "/registro", "", map[string]string{
		"name": strings.Repeat("a", 8<<10), "email": "ana@example.com", "secret": "abcdef",
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/accounts", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	require.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not found", decodeMap(t, rr)["error"])
}
