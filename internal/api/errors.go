package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

const invalidRequestMsg = "Invalid request parameters."

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeServiceError maps a service error onto a status code. Infrastructure
// failures are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, "internal error")
		return
	}
	if errors.Is(err, domain.ErrInvalidPage) {
		writeError(w, code, invalidRequestMsg)
		return
	}
	writeError(w, code, err.Error())
}

// writeListError renders unknown state tokens the way clients expect them.
func writeListError(w http.ResponseWriter, r *http.Request, err error, state models.BookingState) {
	if errors.Is(err, domain.ErrUnknownState) {
		writeError(w, http.StatusBadRequest, "Unknown state: "+string(state))
		return
	}
	writeServiceError(w, r, err)
}
