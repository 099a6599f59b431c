package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/isdelr/todo-api/internal/auth"
	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/isdelr/todo-api/internal/services"
	"github.com/rs/zerolog/hlog"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// AuthPayload defines the structure for registration and login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration and starts a session for the new user.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadBody(w, r, err)
		return
	}

	user, err := h.service.Create(r.Context(), payload.Email, payload.Password)
	if err != nil {
		hlog.FromRequest(r).Info().Err(err).Msg("Registration rejected")
		respondError(w, r, err, "user.register", "", "")
		return
	}

	h.startSession(w, r, user, "user.register")
}

// Login handles user authentication and token issuance.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadBody(w, r, err)
		return
	}

	user, err := h.service.FindByCredentials(r.Context(), payload.Email, payload.Password)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Failed authentication attempt")
		respondError(w, r, err, "user.login", "", "")
		return
	}

	h.startSession(w, r, user, "user.login")
}

// GetMe returns the currently authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		hlog.FromRequest(r).Error().Msg("Could not retrieve user from context")
		common.WriteJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}
	common.WriteJSON(w, r, http.StatusOK, user)
}

// Logout removes the token used on this request. Other sessions stay valid.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, userOK := auth.UserFromContext(r.Context())
	token, tokenOK := auth.TokenFromContext(r.Context())
	if !userOK || !tokenOK {
		hlog.FromRequest(r).Error().Msg("Could not retrieve session from context")
		common.WriteJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		return
	}

	if err := h.service.RemoveToken(r.Context(), user, token); err != nil {
		respondError(w, r, err, "user.logout", user.ID, "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) startSession(w http.ResponseWriter, r *http.Request, user models.User, op string) {
	token, err := h.service.GenerateAuthToken(r.Context(), user)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate auth token")
		respondError(w, r, err, op, user.ID, "")
		return
	}

	w.Header().Set(auth.HeaderName, token)
	common.WriteJSON(w, r, http.StatusOK, user)
}
