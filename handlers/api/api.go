// Package api holds what the resource handlers share: caller lookup, body
// decoding and the mapping from access errors to HTTP responses.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sharedlists/access"
	"sharedlists/middleware"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// StatusFor maps an error from the access services to an HTTP status.
// Conflict is checked before Denied so co-ownership attempts report 409.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, access.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, access.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, access.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, access.ErrDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err. Gateway failures are logged and reported with
// fallback instead of the raw error text.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		middleware.Log(r).WithError(err).Error(fallback)
		resp.Error = fallback
	}
	if reason, ok := access.DenialReason(err); ok {
		resp.Reason = reason.String()
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// Caller returns the actor stored by middleware.Identity, answering 401
// itself when there is none.
func Caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := middleware.Actor(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "User ID required"})
		return "", false
	}
	return actor, true
}

// Decode reads a JSON body into v, answering 400 itself on failure.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.Log(r).WithError(err).Debug("Failed to decode request")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

// IDParam parses a numeric URL parameter, answering 400 itself on failure.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, &access.ValidationError{Field: name, Message: "must be a positive id"}, "")
		return 0, false
	}
	return id, true
}

func Message(w http.ResponseWriter, r *http.Request, msg string) {
	render.JSON(w, r, MessageResponse{Message: msg})
}
