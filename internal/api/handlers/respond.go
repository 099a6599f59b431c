package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/todo-api/internal/common"
	"github.com/rs/zerolog/hlog"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// respondError maps a service error onto a status code and error kind.
// Unexpected errors are logged with the failing operation and the ids it
// touched; the client only sees "internal_error". Empty ids are omitted.
func respondError(w http.ResponseWriter, r *http.Request, err error, op, userID, todoID string) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		common.WriteJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Field: verr.Field, Reason: verr.Reason})
	case errors.Is(err, common.ErrValidation):
		common.WriteJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "validation_error"})
	case errors.Is(err, common.ErrDuplicateEmail):
		common.WriteJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "duplicate_email"})
	case errors.Is(err, common.ErrAuthenticationFailed):
		common.WriteJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "authentication_failed"})
	case errors.Is(err, common.ErrInvalidToken):
		common.WriteJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "invalid_token"})
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrMalformedID):
		common.WriteJSON(w, r, http.StatusNotFound, ErrorResponse{Error: "not_found"})
	default:
		ev := hlog.FromRequest(r).Error().Err(err).Str("op", op)
		if userID != "" {
			ev = ev.Str("user_id", userID)
		}
		if todoID != "" {
			ev = ev.Str("todo_id", todoID)
		}
		ev.Msg("Request failed")
		common.WriteJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
}

func respondBadBody(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Debug().Err(err).Msg("Invalid request body")
	common.WriteJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Reason: "invalid request body"})
}
