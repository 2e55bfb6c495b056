// Package httpapi exposes the conveyor control core to the dashboard over JSON HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iwtcode/conveyorControl/internal/domain"
)

type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDomainError maps the core error taxonomy to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingReason):
		WriteJSONError(w, http.StatusUnprocessableEntity, "missing_reason", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteJSONError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrLineNotRunning):
		WriteJSONError(w, http.StatusConflict, "line_not_running", err.Error())
	case errors.Is(err, domain.ErrUnknownCarModel):
		WriteJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrUnknownCommand),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidCarModel):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		WriteJSONError(w, http.StatusServiceUnavailable, "persistence_error", err.Error())
	default:
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
