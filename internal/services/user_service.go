package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/todo-api/internal/auth"
	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/isdelr/todo-api/internal/store"
)

// bcrypt only looks at the first 72 bytes of a password.
const maxPasswordBytes = 72

// fallbackDummyDigest is a well-formed bcrypt digest not derived from any password.
// It is compared against when the hasher cannot produce a fresh dummy.
const fallbackDummyDigest = "$2a$10$Zq3kRrW0yC5mVtL8pNfHxe.Jd2Ub7oQaXs4iGwYl1Kh9TnMcE6vBu"

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Create(ctx context.Context, email, password string) (models.User, error)
	FindByCredentials(ctx context.Context, email, password string) (models.User, error)
	GenerateAuthToken(ctx context.Context, user models.User) (string, error)
	FindByIDAndToken(ctx context.Context, userID, token string) (models.User, error)
	RemoveToken(ctx context.Context, user models.User, token string) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides business logic for registration and sessions.
type UserService struct {
	users        store.UserRepository
	hasher       auth.PasswordHasher
	tokens       auth.TokenCodec
	writeTimeout time.Duration
	now          func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserRepository, hasher auth.PasswordHasher, tokens auth.TokenCodec) *UserService {
	return &UserService{
		users:        users,
		hasher:       hasher,
		tokens:       tokens,
		writeTimeout: defaultWriteTimeout,
		now:          time.Now,
	}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Create validates and registers a new user. Only the password digest is stored.
func (s *UserService) Create(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if err := validateStruct(credentials{Email: email, Password: password}); err != nil {
		return models.User{}, err
	}
	if len(password) > maxPasswordBytes {
		return models.User{}, common.NewValidationError("password", "must be at most 72 bytes")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC(),
	}

	wctx, cancel := writeContext(ctx, s.writeTimeout)
	defer cancel()
	if err := s.users.Create(wctx, &user); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return models.User{}, common.ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindByCredentials returns the user whose email and password match.
// Unknown email and wrong password fail the same way.
func (s *UserService) FindByCredentials(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Burn a comparison so unknown emails cost the same as bad passwords.
			s.hasher.Verify(password, s.dummy())
			return models.User{}, common.ErrAuthenticationFailed
		}
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return models.User{}, common.ErrAuthenticationFailed
	}
	return *user, nil
}

// GenerateAuthToken issues an auth token for the user and records it.
func (s *UserService) GenerateAuthToken(ctx context.Context, user models.User) (string, error) {
	token, claims, err := s.tokens.Issue(user.ID, models.AccessAuth)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	entry := models.Token{
		Access:    models.AccessAuth,
		Token:     token,
		CreatedAt: claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAtTime(),
	}

	wctx, cancel := writeContext(ctx, s.writeTimeout)
	defer cancel()
	if err := s.users.AddToken(wctx, user.ID, entry); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}
	return token, nil
}

// FindByIDAndToken resolves the user that currently holds token.
func (s *UserService) FindByIDAndToken(ctx context.Context, userID, token string) (models.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return models.User{}, common.ErrAuthenticationFailed
	}

	user, err := s.users.GetByIDAndToken(ctx, userID, models.AccessAuth, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.User{}, common.ErrAuthenticationFailed
		}
		return models.User{}, fmt.Errorf("failed to look up session: %w", err)
	}
	return *user, nil
}

// RemoveToken ends one session. Removing a token twice is not an error.
func (s *UserService) RemoveToken(ctx context.Context, user models.User, token string) error {
	wctx, cancel := writeContext(ctx, s.writeTimeout)
	defer cancel()
	if err := s.users.RemoveToken(wctx, user.ID, token); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, common.ErrMalformedID
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	return *user, nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			digest = fallbackDummyDigest
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}
