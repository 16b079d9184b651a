package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmate/backend/internal/models"
)

func TestRegisterUser(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	user := env.registerUser(t, "uid-alice", "alice")
	assert.Equal("uid-alice", user.FirebaseUID)
	assert.False(user.IsAdmin)

	var got models.User
	rec := env.do(t, http.MethodGet, "/api/user/uid-alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &got)
	assert.Equal(user.ID, got.ID)
	require.NotNil(t, got.Location)
	assert.Equal("Lisbon", got.Location.City)
}

func TestRegisterUserDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	env.registerUser(t, "uid-alice", "alice")

	rec := env.do(t, http.MethodPost, "/api/user", "uid-bob", models.CreateUserRequest{
		Name:     "Imposter",
		Username: "alice",
		Phone:    "555-0111",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterUserValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/user", "uid-alice", models.CreateUserRequest{
		Username: "alice",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec, nil)
	assert.Contains(t, resp.Errors, "name")
	assert.Contains(t, resp.Errors, "phone")
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/user/uid-ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
