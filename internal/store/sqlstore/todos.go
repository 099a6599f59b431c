package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/database"
	"github.com/isdelr/todo-api/internal/models"
)

const todoColumns = `id, text, completed, completed_at, creator_id, created_at`

// TodoRepository stores todos in the `todos` table. Every statement filters on
// creator_id so ownership is enforced by the query itself.
type TodoRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewTodoRepository creates a new TodoRepository.
func NewTodoRepository(db *sql.DB, dialect database.Dialect) *TodoRepository {
	return &TodoRepository{db: db, dialect: dialect}
}

// Create inserts a new todo.
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := rebind(r.dialect, `
		INSERT INTO todos (`+todoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		todo.ID, todo.Text, todo.Completed, nullMillis(todo.CompletedAt), todo.CreatorID, todo.CreatedAt.UnixMilli())
	if err != nil {
		if isForeignKeyViolation(err) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByCreator retrieves all todos owned by a user.
func (r *TodoRepository) ListByCreator(ctx context.Context, creatorID string) ([]models.Todo, error) {
	query := rebind(r.dialect, `
		SELECT `+todoColumns+`
		FROM todos WHERE creator_id = ? ORDER BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return todos, nil
}

// GetForCreator retrieves a single todo owned by creatorID.
func (r *TodoRepository) GetForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error) {
	query := rebind(r.dialect, `
		SELECT `+todoColumns+`
		FROM todos WHERE id = ? AND creator_id = ?`)
	return scanTodo(r.db.QueryRowContext(ctx, query, id, creatorID))
}

// UpdateForCreator applies the patch in one conditional UPDATE. A nil Text
// keeps the stored text.
func (r *TodoRepository) UpdateForCreator(ctx context.Context, creatorID, id string, patch models.TodoPatch) (*models.Todo, error) {
	query := rebind(r.dialect, `
		UPDATE todos
		SET text = COALESCE(?, text), completed = ?, completed_at = ?
		WHERE id = ? AND creator_id = ?
		RETURNING `+todoColumns)

	var text sql.NullString
	if patch.Text != nil {
		text = sql.NullString{String: *patch.Text, Valid: true}
	}
	return scanTodo(r.db.QueryRowContext(ctx, query,
		text, patch.Completed, nullMillis(patch.CompletedAt), id, creatorID))
}

// DeleteForCreator deletes a todo owned by creatorID and returns it.
func (r *TodoRepository) DeleteForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error) {
	query := rebind(r.dialect, `
		DELETE FROM todos
		WHERE id = ? AND creator_id = ?
		RETURNING `+todoColumns)
	return scanTodo(r.db.QueryRowContext(ctx, query, id, creatorID))
}

// scanTodo is a helper function to scan a single row into a Todo struct.
func scanTodo(scanner interface{ Scan(...any) error }) (*models.Todo, error) {
	var (
		todo        models.Todo
		completedAt sql.NullInt64
		createdAt   int64
	)
	err := scanner.Scan(&todo.ID, &todo.Text, &todo.Completed, &completedAt, &todo.CreatorID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if completedAt.Valid {
		ms := completedAt.Int64
		todo.CompletedAt = &ms
	}
	todo.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &todo, nil
}

func nullMillis(ms *int64) sql.NullInt64 {
	if ms == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *ms, Valid: true}
}
