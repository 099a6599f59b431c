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

// UserRepository stores users in `users` and their sessions in `user_tokens`.
type UserRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB, dialect database.Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Create inserts the user row. Tokens are added separately with AddToken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := rebind(r.dialect, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID retrieves a single user by their ID, tokens included.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := rebind(r.dialect, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`)
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves a single user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := rebind(r.dialect, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`)
	return r.getOne(ctx, query, email)
}

// GetByIDAndToken retrieves a user only if they hold the given token with
// the given access kind. Otherwise it returns common.ErrNotFound.
func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, access, token string) (*models.User, error) {
	query := rebind(r.dialect, `
		SELECT u.id, u.email, u.password_hash, u.created_at
		FROM users u
		WHERE u.id = ?
		  AND EXISTS (
			SELECT 1 FROM user_tokens t
			WHERE t.user_id = u.id AND t.access = ? AND t.token = ?
		  )`)
	return r.getOne(ctx, query, id, access, token)
}

// AddToken records a session token for the user. It returns
// common.ErrNotFound if the user does not exist.
func (r *UserRepository) AddToken(ctx context.Context, userID string, token models.Token) error {
	query := rebind(r.dialect, `
		INSERT INTO user_tokens (user_id, access, token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`)

	var expiresAt sql.NullInt64
	if token.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: token.ExpiresAt.UnixMilli(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, userID, token.Access, token.Token, token.CreatedAt.UnixMilli(), expiresAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// RemoveToken deletes a session token. Removing an unknown token is a no-op.
func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	query := rebind(r.dialect, `DELETE FROM user_tokens WHERE user_id = ? AND token = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpiredTokens deletes tokens that expired before now and reports how
// many were removed.
func (r *UserRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	query := rebind(r.dialect, `DELETE FROM user_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`)
	res, err := r.db.ExecContext(ctx, query, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// getOne scans a single user row and loads its tokens.
func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()

	tokens, err := r.loadTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = tokens
	return &user, nil
}

func (r *UserRepository) loadTokens(ctx context.Context, userID string) ([]models.Token, error) {
	query := rebind(r.dialect, `
		SELECT access, token, created_at, expires_at
		FROM user_tokens WHERE user_id = ? ORDER BY id`)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		var (
			t         models.Token
			createdAt int64
			expiresAt sql.NullInt64
		)
		if err := rows.Scan(&t.Access, &t.Token, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.CreatedAt = time.UnixMilli(createdAt).UTC()
		if expiresAt.Valid {
			exp := time.UnixMilli(expiresAt.Int64).UTC()
			t.ExpiresAt = &exp
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}
