// Package mongostore implements the store repositories on MongoDB. Users embed
// their session tokens so token changes are single-document atomic updates.
package mongostore

import (
	"context"
	"fmt"

	"github.com/isdelr/todo-api/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection = "users"
	todosCollection = "todos"
)

// Store vends MongoDB-backed repositories over one client.
type Store struct {
	client *mongo.Client
	users  *UserRepository
	todos  *TodoRepository
}

// Open connects to uri, verifies the connection and ensures indexes on dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := New(client, client.Database(dbName))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// New wraps an existing client and database.
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client: client,
		users:  &UserRepository{coll: db.Collection(usersCollection)},
		todos:  &TodoRepository{coll: db.Collection(todosCollection)},
	}
}

// EnsureIndexes creates the unique email index and the creator index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	_, err = s.todos.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "creatorId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create todos index: %w", err)
	}
	return nil
}

// Users returns the user repository.
func (s *Store) Users() store.UserRepository { return s.users }

// Todos returns the todo repository.
func (s *Store) Todos() store.TodoRepository { return s.todos }

// Ping checks the server responds.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

// Close disconnects the client.
func (s *Store) Close() error { return s.client.Disconnect(context.Background()) }
