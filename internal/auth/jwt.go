package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// TokenVerifier checks a signed token and returns its claims.
type TokenVerifier interface {
	Verify(tokenStr string) (*Claims, error)
}

// TokenCodec issues and verifies signed session tokens.
type TokenCodec interface {
	TokenVerifier
	Issue(userID, access string) (string, *Claims, error)
}

// JWTCodec signs HS256 tokens with a shared secret.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTCodec creates a codec. A zero ttl issues tokens without an expiry.
func NewJWTCodec(secret string, ttl time.Duration) *JWTCodec {
	return &JWTCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for userID with the given access intent. Each
// call carries a random jti, so two tokens for the same user never collide.
func (c *JWTCodec) Issue(userID, access string) (string, *Claims, error) {
	now := c.now()
	claims := &Claims{
		UserID: userID,
		Access: access,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify parses and validates a token string. Every failure wraps
// common.ErrInvalidToken.
func (c *JWTCodec) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.Access != models.AccessAuth {
		return nil, fmt.Errorf("%w: unexpected access %q", common.ErrInvalidToken, claims.Access)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", common.ErrInvalidToken)
	}
	return claims, nil
}

// ExpiresAtTime returns the expiry carried by the claims, or nil when the token never expires.
func (c *Claims) ExpiresAtTime() *time.Time {
	if c.ExpiresAt == nil {
		return nil
	}
	t := c.ExpiresAt.Time
	return &t
}
