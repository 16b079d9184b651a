package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier(t *testing.T) {
	assert := assert.New(t)
	v := &JWTVerifier{Secret: "test-secret"}

	token := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "uid-1",
		"email":   "a@b.c",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	uid, email, err := v.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal("uid-1", uid)
	assert.Equal("a@b.c", email)

	// Wrong secret.
	_, _, err = v.VerifyToken(context.Background(), signToken(t, "other-secret", jwt.MapClaims{"user_id": "x"}))
	assert.Error(err)

	// Expired.
	_, _, err = v.VerifyToken(context.Background(), signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "uid-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}))
	assert.Error(err)

	// Missing user_id claim.
	_, _, err = v.VerifyToken(context.Background(), signToken(t, "test-secret", jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}))
	assert.Error(err)
}

func TestAuthMiddleware(t *testing.T) {
	assert := assert.New(t)

	v := &JWTVerifier{Secret: "test-secret"}
	handler := Auth(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	}))

	// No header.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(http.StatusUnauthorized, rec.Code)

	// Malformed header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(http.StatusUnauthorized, rec.Code)

	// Valid token reaches the handler with the UID in context.
	token := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "uid-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("uid-1", rec.Body.String())
}

func TestGetUserIDEmptyContext(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
	assert.Empty(t, GetUserEmail(context.Background()))
}
