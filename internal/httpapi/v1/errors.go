package v1

import (
	"errors"
	"net/http"

	"ledgerd/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "") }
func unauthorized(w http.ResponseWriter) {
	writeErr(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
}

// writeDomainErr maps service errors onto the HTTP error taxonomy. Anything
// unrecognized is a storage-layer failure and surfaces as a plain 500.
func (s *Server) writeDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidKind):
		writeErr(w, http.StatusUnprocessableEntity, "kind must be inflow or outflow", "invalid_kind")
	case errors.Is(err, errs.ErrInvalidAmount):
		writeErr(w, http.StatusUnprocessableEntity, "amount must be at least one minor unit", "invalid_amount")
	case errors.Is(err, errs.ErrInvalidDescription):
		writeErr(w, http.StatusUnprocessableEntity, "description must not be empty", "invalid_description")
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", "not_found")
	case errors.Is(err, errs.ErrEmailTaken):
		writeErr(w, http.StatusConflict, "email already registered", "email_taken")
	case errors.Is(err, errs.ErrBadCredentials):
		writeErr(w, http.StatusUnauthorized, "invalid email or password", "bad_credentials")
	case errors.Is(err, errs.ErrUnauthorized):
		unauthorized(w)
	case errors.Is(err, errs.ErrInvalid):
		badRequest(w, "invalid request")
	default:
		s.log.Error("internal error", "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal_error")
	}
}
