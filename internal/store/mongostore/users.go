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
)

type userDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"passwordHash"`
	Tokens       []tokenDoc `bson:"tokens"`
	CreatedAt    time.Time  `bson:"createdAt"`
}

type tokenDoc struct {
	Access    string     `bson:"access"`
	Token     string     `bson:"token"`
	CreatedAt time.Time  `bson:"createdAt"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

func toTokenDoc(t models.Token) tokenDoc {
	return tokenDoc{Access: t.Access, Token: t.Token, CreatedAt: t.CreatedAt, ExpiresAt: t.ExpiresAt}
}

func (d userDoc) model() *models.User {
	user := &models.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
	for _, t := range d.Tokens {
		token := models.Token{Access: t.Access, Token: t.Token, CreatedAt: t.CreatedAt.UTC()}
		if t.ExpiresAt != nil {
			exp := t.ExpiresAt.UTC()
			token.ExpiresAt = &exp
		}
		user.Tokens = append(user.Tokens, token)
	}
	return user
}

// UserRepository stores users in the `users` collection.
type UserRepository struct {
	coll *mongo.Collection
}

// Create inserts a new user document.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	doc := userDoc{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Tokens:       []tokenDoc{},
		CreatedAt:    user.CreatedAt,
	}
	for _, t := range user.Tokens {
		doc.Tokens = append(doc.Tokens, toTokenDoc(t))
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

// GetByIDAndToken retrieves a user only if they hold the given token.
func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, access, token string) (*models.User, error) {
	return r.findOne(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "tokens", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "access", Value: access},
			{Key: "token", Value: token},
		}}}},
	})
}

func (r *UserRepository) AddToken(ctx context.Context, userID string, token models.Token) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "tokens", Value: toTokenDoc(token)}}}},
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *UserRepository) RemoveToken(ctx context.Context, userID, token string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "tokens", Value: bson.D{{Key: "token", Value: token}}}}}},
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpiredTokens pulls expired entries from every user. MongoDB reports
// modified documents, so the count is the number of users touched.
func (r *UserRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	expired := bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: now}}}}
	res, err := r.coll.UpdateMany(ctx,
		bson.D{{Key: "tokens", Value: bson.D{{Key: "$elemMatch", Value: expired}}}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "tokens", Value: expired}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.model(), nil
}
