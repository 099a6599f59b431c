// Package store defines the persistence contracts used by the services.
// Implementations live in sqlstore (SQLite, Postgres), mongostore (MongoDB)
// and cachestore (Redis read cache decorating a TodoRepository).
//
// Lookups that find nothing return common.ErrNotFound. A write that collides
// with a unique index returns common.ErrAlreadyExists. Every read-then-write
// is a single conditional statement on the backend.
package store

import (
	"context"
	"time"

	"github.com/isdelr/todo-api/internal/models"
)

// UserRepository persists users and their session tokens.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByIDAndToken returns the user only if it holds a token entry with
	// exactly this access and value.
	GetByIDAndToken(ctx context.Context, id, access, token string) (*models.User, error)
	// AddToken appends a token entry. It returns common.ErrNotFound when the
	// user does not exist.
	AddToken(ctx context.Context, userID string, token models.Token) error
	// RemoveToken deletes the matching entry. Removing an absent token is not an error.
	RemoveToken(ctx context.Context, userID, token string) error
	// DeleteExpiredTokens drops token entries whose expiry is before now and
	// returns how many were removed.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// TodoRepository persists todos. Every read and write is scoped by creator id;
// a todo owned by someone else is reported as common.ErrNotFound.
type TodoRepository interface {
	Create(ctx context.Context, todo *models.Todo) error
	ListByCreator(ctx context.Context, creatorID string) ([]models.Todo, error)
	GetForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error)
	UpdateForCreator(ctx context.Context, creatorID, id string, patch models.TodoPatch) (*models.Todo, error)
	DeleteForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error)
}

// Store bundles the repositories of one backend with its lifecycle.
type Store interface {
	Users() UserRepository
	Todos() TodoRepository
	Ping(ctx context.Context) error
	Close() error
}
