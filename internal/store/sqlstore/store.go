// Package sqlstore implements the store repositories on database/sql for the
// SQLite and Postgres dialects. Queries are written with `?` placeholders and
// rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/isdelr/todo-api/internal/database"
	"github.com/isdelr/todo-api/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store vends SQL-backed repositories sharing one connection pool.
type Store struct {
	db    *sql.DB
	users *UserRepository
	todos *TodoRepository
}

// New wraps an open, migrated connection pool.
func New(db *sql.DB, dialect database.Dialect) *Store {
	return &Store{
		db:    db,
		users: NewUserRepository(db, dialect),
		todos: NewTodoRepository(db, dialect),
	}
}

// Users returns the user repository.
func (s *Store) Users() store.UserRepository { return s.users }

// Todos returns the todo repository.
func (s *Store) Todos() store.TodoRepository { return s.todos }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites `?` placeholders into `$n` for Postgres.
func rebind(dialect database.Dialect, query string) string {
	if dialect != database.DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return isSQLiteConstraint(sqliteErr, "UNIQUE")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			return true
		}
		return isSQLiteConstraint(sqliteErr, "FOREIGN KEY")
	}
	return false
}

// isSQLiteConstraint matches a primary-code constraint error by message, for
// connections that report SQLITE_CONSTRAINT without the extended code.
func isSQLiteConstraint(err *sqlite.Error, kind string) bool {
	return err.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(err.Error(), kind)
}
