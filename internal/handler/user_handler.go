package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/auth"
	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/service"
)

// UserHandler serves the caller's own profile under /me.
type UserHandler struct {
	users  *service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

type changePasswordRequest struct {
	CurrentSecret string `json:"current_secret"`
	NewSecret     string `json:"new_secret"`
}

type deleteAccountRequest struct {
	Secret string `json:"secret"`
}

// RegisterRoutes registers the profile routes. They must be mounted behind
// the auth middleware.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleProfile)
	r.Put("/me", h.handleUpdateProfile)
	r.Patch("/me", h.handleUpdateProfile)
	r.Delete("/me", h.handleDeleteAccount)
	r.Put("/me/password", h.handleChangePassword)
}

func (h *UserHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Profile(r.Context(), identity.UserID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var patch domain.UserPatch
	if err := decode(r, &patch); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), identity.UserID, &patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var body changePasswordRequest
	if err := decode(r, &body); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	err = h.users.ChangePassword(r.Context(), identity.UserID, service.ChangePasswordInput{
		CurrentSecret: body.CurrentSecret,
		NewSecret:     body.NewSecret,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAccount removes the caller and, by cascade, everything they own.
// The body must repeat the caller's secret.
func (h *UserHandler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity, err := auth.RequireIdentity(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	var body deleteAccountRequest
	if err := decode(r, &body); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if err := h.users.DeleteAccount(r.Context(), identity.UserID, body.Secret); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
