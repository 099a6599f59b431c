package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		dialect Dialect
		dsn     string
	}{
		{"./todo.db", DialectSQLite, "./todo.db"},
		{"sqlite:///var/lib/todo.db", DialectSQLite, "/var/lib/todo.db"},
		{"postgres://u:p@localhost/todo", DialectPostgres, "postgres://u:p@localhost/todo"},
		{"postgresql://localhost/todo", DialectPostgres, "postgresql://localhost/todo"},
		{"mongodb://localhost:27017", DialectMongo, "mongodb://localhost:27017"},
		{"mongodb+srv://cluster.example.net", DialectMongo, "mongodb+srv://cluster.example.net"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialect, dsn := ParseURL(tt.url)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:todo.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("todo.db"))
	assert.Equal(t, "file:todo.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:todo.db?mode=rwc"))
}

func TestNew_UnsupportedDialect(t *testing.T) {
	_, err := New(context.Background(), DialectMongo, "mongodb://localhost")
	assert.Error(t, err)
}

func TestMigrate_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := New(ctx, DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db, DialectSQLite))
	// Applying again is a no-op.
	require.NoError(t, Migrate(ctx, db, DialectSQLite))

	for _, table := range []string{"users", "user_tokens", "todos"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrate_NoMigrationsForMongo(t *testing.T) {
	assert.Error(t, Migrate(context.Background(), nil, DialectMongo))
}
