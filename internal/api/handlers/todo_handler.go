package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/todo-api/internal/auth"
	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/isdelr/todo-api/internal/services"
	"github.com/rs/zerolog/hlog"
)

// TodoHandler handles HTTP requests for the authenticated user's todos.
type TodoHandler struct {
	service services.TodoServiceProvider
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(service services.TodoServiceProvider) *TodoHandler {
	return &TodoHandler{service: service}
}

// CreateTodoPayload is the body of POST /todos.
type CreateTodoPayload struct {
	Text string `json:"text"`
}

// UpdateTodoPayload is the body of PATCH /todos/{id}. Any other field is ignored.
type UpdateTodoPayload struct {
	Text      *string         `json:"text"`
	Completed json.RawMessage `json:"completed"`
}

type todoEnvelope struct {
	Todo models.Todo `json:"todo"`
}

type todosEnvelope struct {
	Todos []models.Todo `json:"todos"`
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload CreateTodoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadBody(w, r, err)
		return
	}

	todo, err := h.service.Create(r.Context(), user.ID, payload.Text)
	if err != nil {
		respondError(w, r, err, "todo.create", user.ID, "")
		return
	}
	common.WriteJSON(w, r, http.StatusOK, todo)
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	todos, err := h.service.FindAllFor(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err, "todo.list", user.ID, "")
		return
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	common.WriteJSON(w, r, http.StatusOK, todosEnvelope{Todos: todos})
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	todo, err := h.service.FindOneFor(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, err, "todo.get", user.ID, id)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, todoEnvelope{Todo: todo})
}

// Update applies text and completion changes. Only a literal JSON true marks
// the todo completed; any other value, or none, marks it not completed.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload UpdateTodoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadBody(w, r, err)
		return
	}

	patch := models.TodoPatch{
		Text:      payload.Text,
		Completed: bytes.Equal(bytes.TrimSpace(payload.Completed), []byte("true")),
	}

	id := chi.URLParam(r, "id")
	todo, err := h.service.UpdateFor(r.Context(), user.ID, id, patch)
	if err != nil {
		respondError(w, r, err, "todo.update", user.ID, id)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, todoEnvelope{Todo: todo})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	todo, err := h.service.RemoveFor(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, err, "todo.delete", user.ID, id)
		return
	}
	common.WriteJSON(w, r, http.StatusOK, todoEnvelope{Todo: todo})
}

func currentUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		hlog.FromRequest(r).Error().Msg("Could not retrieve user from context")
		common.WriteJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
	}
	return user, ok
}
