package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type todoDoc struct {
	ID          string    `bson:"_id"`
	Text        string    `bson:"text"`
	Completed   bool      `bson:"completed"`
	CompletedAt *int64    `bson:"completedAt"`
	CreatorID   string    `bson:"creatorId"`
	CreatedAt   time.Time `bson:"createdAt"`
}

func (d todoDoc) model() *models.Todo {
	return &models.Todo{
		ID:          d.ID,
		Text:        d.Text,
		Completed:   d.Completed,
		CompletedAt: d.CompletedAt,
		CreatorID:   d.CreatorID,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// TodoRepository stores todos in the `todos` collection. Filters always
// include creatorId.
type TodoRepository struct {
	coll *mongo.Collection
}

func ownedBy(creatorID, id string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "creatorId", Value: creatorID}}
}

func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	_, err := r.coll.InsertOne(ctx, todoDoc{
		ID:          todo.ID,
		Text:        todo.Text,
		Completed:   todo.Completed,
		CompletedAt: todo.CompletedAt,
		CreatorID:   todo.CreatorID,
		CreatedAt:   todo.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *TodoRepository) ListByCreator(ctx context.Context, creatorID string) ([]models.Todo, error) {
	cursor, err := r.coll.Find(ctx,
		bson.D{{Key: "creatorId", Value: creatorID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var docs []todoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	todos := make([]models.Todo, 0, len(docs))
	for _, d := range docs {
		todos = append(todos, *d.model())
	}
	return todos, nil
}

func (r *TodoRepository) GetForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error) {
	return decodeTodo(r.coll.FindOne(ctx, ownedBy(creatorID, id)))
}

// UpdateForCreator applies the patch and returns the updated todo.
func (r *TodoRepository) UpdateForCreator(ctx context.Context, creatorID, id string, patch models.TodoPatch) (*models.Todo, error) {
	set := bson.D{
		{Key: "completed", Value: patch.Completed},
		{Key: "completedAt", Value: patch.CompletedAt},
	}
	if patch.Text != nil {
		set = append(set, bson.E{Key: "text", Value: *patch.Text})
	}

	res := r.coll.FindOneAndUpdate(ctx,
		ownedBy(creatorID, id),
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	return decodeTodo(res)
}

func (r *TodoRepository) DeleteForCreator(ctx context.Context, creatorID, id string) (*models.Todo, error) {
	return decodeTodo(r.coll.FindOneAndDelete(ctx, ownedBy(creatorID, id)))
}

func decodeTodo(res *mongo.SingleResult) (*models.Todo, error) {
	var doc todoDoc
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}
