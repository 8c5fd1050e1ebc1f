package httpapi

import (
	"errors"
	"net/http"

	"bilancio/internal/errs"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }

func notFound(w http.ResponseWriter) {
	writeErr(w, http.StatusNotFound, "not_found", "not_found")
}

func unprocessable(w http.ResponseWriter, msg, code string) {
	writeErr(w, http.StatusUnprocessableEntity, msg, code)
}

// writeDomainErr maps service errors onto HTTP statuses. Anything outside
// the known taxonomy is a 500 with a generic body.
func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		notFound(w)
	case errors.Is(err, errs.ErrInvalid):
		unprocessable(w, err.Error(), "validation_error")
	case errors.Is(err, errs.ErrInsufficientFunds):
		unprocessable(w, err.Error(), "insufficient_funds")
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrAlreadyRunning):
		writeErr(w, http.StatusConflict, err.Error(), "conflict")
	default:
		writeErr(w, http.StatusInternalServerError, "internal error", "internal")
	}
}
