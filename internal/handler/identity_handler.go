package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/service"
)

// IdentityHandler serves registration and login.
type IdentityHandler struct {
	identity *service.IdentityService
	logger   zerolog.Logger
}

// NewIdentityHandler creates a new identity handler.
func NewIdentityHandler(identity *service.IdentityService, logger zerolog.Logger) *IdentityHandler {
	return &IdentityHandler{
		identity: identity,
		logger:   logger.With().Str("handler", "identity").Logger(),
	}
}

type registerRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Secret  string `json:"secret"`
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// authResponse is returned by register and login.
type authResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// RegisterRoutes registers the public identity routes.
func (h *IdentityHandler) RegisterRoutes(r chi.Router) {
	r.Post("/registro", h.handleRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

func (h *IdentityHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := decode(r, &body); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.identity.Register(r.Context(), service.RegisterInput{
		Name:    body.Name,
		Surname: body.Surname,
		Phone:   body.Phone,
		Email:   body.Email,
		Secret:  body.Secret,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *IdentityHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decode(r, &body); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.identity.Login(r.Context(), service.LoginInput{Email: body.Email, Secret: body.Secret})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

func newAuthResponse(result *service.AuthResult) authResponse {
	return authResponse{
		Token:     result.Token.Value,
		ExpiresAt: result.Token.ExpiresAt,
		User:      result.User,
	}
}
