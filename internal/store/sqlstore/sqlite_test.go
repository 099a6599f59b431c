package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/database"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, database.DialectSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, database.DialectSQLite))
	s := New(db, database.DialectSQLite)
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "digest",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUsers_CreateAndGet(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com")

	byID, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
	assert.Equal(t, "digest", byID.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(byID.CreatedAt))
	assert.Empty(t, byID.Tokens)

	byEmail, err := s.Users().GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetByEmail(ctx, "A@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.Users().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	first := createUser(t, s, "dup@example.com")
	require.NoError(t, s.Users().AddToken(ctx, first.ID, models.Token{Access: models.AccessAuth, Token: "t1", CreatedAt: time.Now()}))

	err := s.Users().Create(ctx, &models.User{ID: uuid.NewString(), Email: "dup@example.com", PasswordHash: "x", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	got, err := s.Users().GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, got.Tokens, 1)
	assert.Equal(t, "t1", got.Tokens[0].Token)
}

func TestUsers_Tokens(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	u := createUser(t, s, "tok@example.com")
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)

	require.NoError(t, s.Users().AddToken(ctx, u.ID, models.Token{Access: models.AccessAuth, Token: "one", CreatedAt: time.Now(), ExpiresAt: &exp}))
	require.NoError(t, s.Users().AddToken(ctx, u.ID, models.Token{Access: models.AccessAuth, Token: "two", CreatedAt: time.Now()}))

	got, err := s.Users().GetByIDAndToken(ctx, u.ID, models.AccessAuth, "two")
	require.NoError(t, err)
	require.Len(t, got.Tokens, 2)
	assert.Equal(t, "one", got.Tokens[0].Token)
	require.NotNil(t, got.Tokens[0].ExpiresAt)
	assert.True(t, exp.Equal(*got.Tokens[0].ExpiresAt))
	assert.Nil(t, got.Tokens[1].ExpiresAt)
	assert.True(t, got.HasToken(models.AccessAuth, "one"))

	_, err = s.Users().GetByIDAndToken(ctx, u.ID, "reset", "two")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.Users().RemoveToken(ctx, u.ID, "two"))
	require.NoError(t, s.Users().RemoveToken(ctx, u.ID, "two"))
	_, err = s.Users().GetByIDAndToken(ctx, u.ID, models.AccessAuth, "two")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Users().GetByIDAndToken(ctx, u.ID, models.AccessAuth, "one")
	assert.NoError(t, err)
}

func TestUsers_AddTokenUnknownUser(t *testing.T) {
	s := newSQLiteStore(t)
	err := s.Users().AddToken(context.Background(), uuid.NewString(), models.Token{Access: models.AccessAuth, Token: "x", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUsers_DeleteExpiredTokens(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	u := createUser(t, s, "exp@example.com")
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	require.NoError(t, s.Users().AddToken(ctx, u.ID, models.Token{Access: models.AccessAuth, Token: "old", CreatedAt: now, ExpiresAt: &past}))
	require.NoError(t, s.Users().AddToken(ctx, u.ID, models.Token{Access: models.AccessAuth, Token: "fresh", CreatedAt: now, ExpiresAt: &future}))
	require.NoError(t, s.Users().AddToken(ctx, u.ID, models.Token{Access: models.AccessAuth, Token: "forever", CreatedAt: now}))

	n, err := s.Users().DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.HasToken(models.AccessAuth, "old"))
	assert.True(t, got.HasToken(models.AccessAuth, "fresh"))
	assert.True(t, got.HasToken(models.AccessAuth, "forever"))
}

func newTodo(creatorID, text string) *models.Todo {
	return &models.Todo{
		ID:        uuid.NewString(),
		Text:      text,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTodos_CRUD(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	u := createUser(t, s, "todo@example.com")

	todo := newTodo(u.ID, "first")
	require.NoError(t, s.Todos().Create(ctx, todo))
	second := newTodo(u.ID, "second")
	second.CreatedAt = todo.CreatedAt.Add(time.Second)
	require.NoError(t, s.Todos().Create(ctx, second))

	list, err := s.Todos().ListByCreator(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Text)

	got, err := s.Todos().GetForCreator(ctx, u.ID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt)

	text := "renamed"
	ms := time.Now().UnixMilli()
	updated, err := s.Todos().UpdateForCreator(ctx, u.ID, todo.ID, models.TodoPatch{Text: &text, Completed: true, CompletedAt: &ms})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Text)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, ms, *updated.CompletedAt)

	// Nil text keeps the stored value.
	updated, err = s.Todos().UpdateForCreator(ctx, u.ID, todo.ID, models.TodoPatch{})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Text)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)

	deleted, err := s.Todos().DeleteForCreator(ctx, u.ID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, deleted.ID)

	_, err = s.Todos().GetForCreator(ctx, u.ID, todo.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = s.Todos().DeleteForCreator(ctx, u.ID, todo.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTodos_Ownership(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	alice := createUser(t, s, "alice@example.com")
	bob := createUser(t, s, "bob@example.com")

	todo := newTodo(alice.ID, "alice's")
	require.NoError(t, s.Todos().Create(ctx, todo))

	list, err := s.Todos().ListByCreator(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	_, err = s.Todos().GetForCreator(ctx, bob.ID, todo.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	text := "hijacked"
	_, err = s.Todos().UpdateForCreator(ctx, bob.ID, todo.ID, models.TodoPatch{Text: &text})
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = s.Todos().DeleteForCreator(ctx, bob.ID, todo.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := s.Todos().GetForCreator(ctx, alice.ID, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice's", got.Text)
}

func TestStore_Ping(t *testing.T) {
	s := newSQLiteStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
