package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/todo-api/internal/common"
	"github.com/isdelr/todo-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	user models.User
	err  error

	gotID, gotToken string
}

func (f *fakeResolver) FindByIDAndToken(_ context.Context, userID, token string) (models.User, error) {
	f.gotID, f.gotToken = userID, token
	return f.user, f.err
}

func serve(t *testing.T, codec *JWTCodec, users UserResolver, token string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	var reached bool
	h := Middleware(codec, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		tok, ok := TokenFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, token, tok)
		w.Write([]byte(user.Email))
	}))

	req := httptest.NewRequest(http.MethodGet, "/user/me", nil)
	if token != "" {
		req.Header.Set(HeaderName, token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func TestMiddleware_AttachesUser(t *testing.T) {
	codec := NewJWTCodec(testSecret, time.Hour)
	tok, _, err := codec.Issue("user-1", models.AccessAuth)
	require.NoError(t, err)

	users := &fakeResolver{user: models.User{ID: "user-1", Email: "a@example.com"}}
	rec, reached := serve(t, codec, users, tok)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", rec.Body.String())
	assert.Equal(t, "user-1", users.gotID)
	assert.Equal(t, tok, users.gotToken)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	rec, reached := serve(t, NewJWTCodec(testSecret, time.Hour), &fakeResolver{}, "")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_BadToken(t *testing.T) {
	users := &fakeResolver{}
	rec, reached := serve(t, NewJWTCodec(testSecret, time.Hour), users, "not-a-token")
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid_token"}`, rec.Body.String())
	assert.Empty(t, users.gotID, "store must not be consulted for an unverifiable token")
}

func TestMiddleware_RevokedToken(t *testing.T) {
	codec := NewJWTCodec(testSecret, time.Hour)
	tok, _, err := codec.Issue("user-1", models.AccessAuth)
	require.NoError(t, err)

	rec, reached := serve(t, codec, &fakeResolver{err: common.ErrAuthenticationFailed}, tok)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"authentication_failed"}`, rec.Body.String())
}

func TestMiddleware_StoreFailure(t *testing.T) {
	codec := NewJWTCodec(testSecret, time.Hour)
	tok, _, err := codec.Issue("user-1", models.AccessAuth)
	require.NoError(t, err)

	rec, reached := serve(t, codec, &fakeResolver{err: errors.New("connection refused")}, tok)
	assert.False(t, reached)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, rec.Body.String())
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
	_, ok = TokenFromContext(context.Background())
	assert.False(t, ok)
}
