// Package cachestore decorates a todo repository with a Redis read cache.
// Redis is never the source of truth: cache failures are logged and the
// underlying repository answers instead.
package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/isdelr/todo-api/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultTTL is used when a non-positive TTL is passed to NewTodos.
const DefaultTTL = 5 * time.Minute

// NewClient creates a Redis client for addr and checks it responds.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Todos caches GetForCreator results under todo:{creatorId}:{id}.
//
// Reads only fill an absent key (SETNX), writes overwrite it: an update stores
// the fresh row and a delete stores a tombstone. A reader that loaded a row
// before a concurrent write therefore cannot put the old row back.
type Todos struct {
	next store.TodoRepository
	rdb  redis.Cmdable
	ttl  time.Duration
}

// NewTodos wraps next with a cache held in rdb.
func NewTodos(next store.TodoRepository, rdb redis.Cmdable, ttl time.Duration) *Todos {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Todos{next: next, rdb: rdb, ttl: ttl}
}

// tombstone marks a deleted todo until the entry expires.
const tombstone = "deleted"

type cachedTodo struct {
	models.Todo
	CreatedAt int64 `json:"createdAtMs"`
}

func key(creatorID, id string) string {
	return "todo:" + creatorID + ":" + id
}

// Create passes through; new todos are cached on first read.
func (t *Todos) Create(ctx context.Context, todo *models.Todo) error {
	return t.next.Create(ctx, todo)
}

// ListByCreator is not cached.
func (t *Todos) ListByCreator(ctx context.Context, creatorID string) ([]models.Todo, error) {
	return t.next.ListByCreator(ctx, creatorID)
}

// GetForCreator answers from Redis when it can and fills the key on a miss.
func (t *Todos) GetForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error) {
	k := key(creatorID, id)

	raw, err := t.rdb.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		if string(raw) == tombstone {
			return nil, common.ErrNotFound
		}
		var cached cachedTodo
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			todo := cached.Todo
			todo.CreatedAt = time.UnixMilli(cached.CreatedAt).UTC()
			return &todo, nil
		}
		log.Warn().Str("key", k).Msg("Dropping undecodable todo cache entry")
		t.invalidate(ctx, k)
	case errors.Is(err, redis.Nil):
	default:
		log.Warn().Err(err).Str("todo_id", id).Msg("Todo cache read failed")
	}

	todo, err := t.next.GetForCreator(ctx, creatorID, id)
	if err != nil {
		return nil, err
	}
	if raw, ok := encode(todo); ok {
		if err := t.rdb.SetNX(ctx, k, raw, t.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("todo_id", id).Msg("Todo cache fill failed")
		}
	}
	return todo, nil
}

// UpdateForCreator writes through and stores the updated row in the cache.
func (t *Todos) UpdateForCreator(ctx context.Context, creatorID, id string, patch models.TodoPatch) (*models.Todo, error) {
	k := key(creatorID, id)
	todo, err := t.next.UpdateForCreator(ctx, creatorID, id, patch)
	if err != nil {
		t.invalidate(ctx, k)
		return nil, err
	}
	raw, ok := encode(todo)
	if !ok {
		t.invalidate(ctx, k)
		return todo, nil
	}
	t.set(ctx, k, raw, id)
	return todo, nil
}

// DeleteForCreator deletes through and leaves a tombstone behind.
func (t *Todos) DeleteForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error) {
	k := key(creatorID, id)
	todo, err := t.next.DeleteForCreator(ctx, creatorID, id)
	if err != nil {
		t.invalidate(ctx, k)
		return nil, err
	}
	t.set(ctx, k, []byte(tombstone), id)
	return todo, nil
}

func encode(todo *models.Todo) ([]byte, bool) {
	raw, err := json.Marshal(cachedTodo{Todo: *todo, CreatedAt: todo.CreatedAt.UnixMilli()})
	return raw, err == nil
}

func (t *Todos) set(ctx context.Context, k string, raw []byte, id string) {
	if err := t.rdb.Set(ctx, k, raw, t.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("todo_id", id).Msg("Todo cache write failed")
		// A stale entry must not outlive a failed overwrite.
		t.invalidate(ctx, k)
	}
}

func (t *Todos) invalidate(ctx context.Context, k string) {
	if err := t.rdb.Del(ctx, k).Err(); err != nil {
		log.Warn().Err(err).Str("key", k).Msg("Todo cache invalidation failed")
	}
}

// Store swaps the todo repository of an underlying store for a cached one.
type Store struct {
	store.Store
	todos *Todos
	rdb   *redis.Client
}

// Wrap returns a store whose Todos() reads through rdb. Close also closes rdb.
func Wrap(s store.Store, rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{Store: s, todos: NewTodos(s.Todos(), rdb, ttl), rdb: rdb}
}

// Todos returns the cached todo repository.
func (s *Store) Todos() store.TodoRepository { return s.todos }

// Close closes the underlying store and the Redis client.
func (s *Store) Close() error {
	return errors.Join(s.Store.Close(), s.rdb.Close())
}
