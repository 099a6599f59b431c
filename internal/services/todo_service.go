package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/isdelr/todo-api/internal/store"
)

// TodoServiceProvider defines the interface for todo services. Every method is
// scoped to the creator; other users' todos behave as if they did not exist.
type TodoServiceProvider interface {
	Create(ctx context.Context, creatorID, text string) (models.Todo, error)
	FindAllFor(ctx context.Context, creatorID string) ([]models.Todo, error)
	FindOneFor(ctx context.Context, creatorID, todoID string) (models.Todo, error)
	UpdateFor(ctx context.Context, creatorID, todoID string, patch models.TodoPatch) (models.Todo, error)
	RemoveFor(ctx context.Context, creatorID, todoID string) (models.Todo, error)
}

// TodoService provides business logic for todo management.
type TodoService struct {
	todos        store.TodoRepository
	writeTimeout time.Duration
	now          func() time.Time
}

// NewTodoService creates a new TodoService.
func NewTodoService(todos store.TodoRepository) *TodoService {
	return &TodoService{todos: todos, writeTimeout: defaultWriteTimeout, now: time.Now}
}

type todoText struct {
	Text string `json:"text" validate:"required"`
}

// Create adds a todo owned by creatorID.
func (s *TodoService) Create(ctx context.Context, creatorID, text string) (models.Todo, error) {
	text = strings.TrimSpace(text)
	if err := validateStruct(todoText{Text: text}); err != nil {
		return models.Todo{}, err
	}

	todo := models.Todo{
		ID:        uuid.NewString(),
		Text:      text,
		CreatorID: creatorID,
		CreatedAt: s.now().UTC(),
	}

	wctx, cancel := writeContext(ctx, s.writeTimeout)
	defer cancel()
	if err := s.todos.Create(wctx, &todo); err != nil {
		return models.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	return todo, nil
}

// FindAllFor lists the creator's todos.
func (s *TodoService) FindAllFor(ctx context.Context, creatorID string) ([]models.Todo, error) {
	todos, err := s.todos.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// FindOneFor returns a single todo owned by creatorID.
func (s *TodoService) FindOneFor(ctx context.Context, creatorID, todoID string) (models.Todo, error) {
	if _, err := uuid.Parse(todoID); err != nil {
		return models.Todo{}, common.ErrMalformedID
	}
	todo, err := s.todos.GetForCreator(ctx, creatorID, todoID)
	if err != nil {
		return models.Todo{}, err
	}
	return *todo, nil
}

// UpdateFor applies text and completion changes. Completing stamps completedAt
// with the current time in epoch millis; anything else clears it.
func (s *TodoService) UpdateFor(ctx context.Context, creatorID, todoID string, patch models.TodoPatch) (models.Todo, error) {
	if _, err := uuid.Parse(todoID); err != nil {
		return models.Todo{}, common.ErrMalformedID
	}

	if patch.Text != nil {
		text := strings.TrimSpace(*patch.Text)
		if err := validateStruct(todoText{Text: text}); err != nil {
			return models.Todo{}, err
		}
		patch.Text = &text
	}

	patch.CompletedAt = nil
	if patch.Completed {
		ms := s.now().UnixMilli()
		patch.CompletedAt = &ms
	}

	wctx, cancel := writeContext(ctx, s.writeTimeout)
	defer cancel()
	todo, err := s.todos.UpdateForCreator(wctx, creatorID, todoID, patch)
	if err != nil {
		return models.Todo{}, err
	}
	return *todo, nil
}

// RemoveFor deletes a todo and returns what was deleted.
func (s *TodoService) RemoveFor(ctx context.Context, creatorID, todoID string) (models.Todo, error) {
	if _, err := uuid.Parse(todoID); err != nil {
		return models.Todo{}, common.ErrMalformedID
	}

	wctx, cancel := writeContext(ctx, s.writeTimeout)
	defer cancel()
	todo, err := s.todos.DeleteForCreator(wctx, creatorID, todoID)
	if err != nil {
		return models.Todo{}, err
	}
	return *todo, nil
}
