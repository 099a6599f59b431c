package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/todo-api/internal/auth"
	"github.com/isdelr/todo-api/internal/database"
	"github.com/isdelr/todo-api/internal/store/sqlstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "services-test-secret-services-test"

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, database.DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, database.DialectSQLite))
	s := sqlstore.New(db, database.DialectSQLite)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestServices(t *testing.T) (*UserService, *TodoService) {
	t.Helper()
	s := newTestStore(t)
	users := NewUserService(s.Users(), auth.NewBcryptHasher(bcrypt.MinCost), auth.NewJWTCodec(testSecret, time.Hour))
	return users, NewTodoService(s.Todos())
}
