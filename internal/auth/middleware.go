package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/rs/zerolog/hlog"
)

// HeaderName carries the session token on requests and responses.
const HeaderName = "x-auth"

type contextKey string

const (
	userKey  = contextKey("authUser")
	tokenKey = contextKey("authToken")
)

// UserResolver loads the user that holds a given session token.
type UserResolver interface {
	FindByIDAndToken(ctx context.Context, userID, token string) (models.User, error)
}

// Middleware protects routes with the x-auth header. On success the user and
// the raw token are available through UserFromContext and TokenFromContext.
func Middleware(verifier TokenVerifier, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := hlog.FromRequest(r)

			tokenStr := r.Header.Get(HeaderName)
			if tokenStr == "" {
				writeUnauthorized(w, r, "authentication_failed")
				return
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				logger.Debug().Err(err).Msg("Rejected auth token")
				writeUnauthorized(w, r, "invalid_token")
				return
			}

			user, err := users.FindByIDAndToken(r.Context(), claims.UserID, tokenStr)
			if err != nil {
				if errors.Is(err, common.ErrAuthenticationFailed) {
					logger.Debug().Str("user_id", claims.UserID).Msg("Token not registered for user")
					writeUnauthorized(w, r, "authentication_failed")
					return
				}
				logger.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to resolve user from token")
				common.WriteJSON(w, r, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user, tokenStr)))
		})
	}
}

// WithUser returns a context carrying the authenticated user and token.
func WithUser(ctx context.Context, user models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFromContext returns the user attached by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// TokenFromContext returns the raw token attached by Middleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, kind string) {
	common.WriteJSON(w, r, http.StatusUnauthorized, map[string]string{"error": kind})
}
