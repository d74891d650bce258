package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/service"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeServiceError translates err into the client-facing response.
// Anything that is not a known business error is logged and reported as an
// opaque internal error.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	var (
		verr     *domain.ValidationError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: domain.ErrValidation.Error(), Details: verr.Fields})
	case errors.Is(err, domain.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, domain.ErrDuplicateEmail.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, service.ErrNoReceipt):
		writeError(w, http.StatusNotFound, errorMessage(err))
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, service.ErrTooManyAttempts.Error())
	case errors.Is(err, service.ErrReceiptsDisabled):
		writeError(w, http.StatusNotImplemented, service.ErrReceiptsDisabled.Error())
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	default:
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", requestID(r)).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, service.ErrInternalError.Error())
	}
}

func errorMessage(err error) string {
	if errors.Is(err, service.ErrNoReceipt) {
		return service.ErrNoReceipt.Error()
	}
	return domain.ErrNotFound.Error()
}
