package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmate/backend/internal/models"
)

func TestUserRegistration(t *testing.T) {
	assert := assert.New(t)
	s, err := NewLocalUserService("")
	require.NoError(t, err)
	ctx := context.Background()

	user, err := s.Create(ctx, &models.CreateUserRequest{
		Name: "Alice", Username: "alice", Phone: "111", FirebaseUID: "uid-alice",
	})
	require.NoError(t, err)
	assert.False(user.IsAdmin)
	assert.False(user.IsBanned)

	// Username uniqueness.
	_, err = s.Create(ctx, &models.CreateUserRequest{
		Name: "Imposter", Username: "alice", Phone: "999", FirebaseUID: "uid-other",
	})
	assert.ErrorIs(err, ErrUsernameTaken)

	got, err := s.GetByUID(ctx, "uid-alice")
	require.NoError(t, err)
	assert.Equal(user.ID, got.ID)

	_, err = s.GetByUID(ctx, "uid-missing")
	assert.ErrorIs(err, ErrUserNotFound)
}

func TestUserFlagsAndStrikes(t *testing.T) {
	assert := assert.New(t)
	s, err := NewLocalUserService("")
	require.NoError(t, err)
	ctx := context.Background()

	user, err := s.Create(ctx, &models.CreateUserRequest{
		Name: "Bob", Username: "bob", Phone: "222", FirebaseUID: "uid-bob",
	})
	require.NoError(t, err)

	updated, err := s.SetAdmin(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(updated.IsAdmin)

	updated, err = s.SetBanned(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(updated.IsBanned)

	require.NoError(t, s.AddStrike(ctx, "uid-bob"))
	require.NoError(t, s.AddStrike(ctx, "uid-bob"))
	// Strikes against unknown identities are dropped silently.
	require.NoError(t, s.AddStrike(ctx, "uid-nobody"))

	got, err := s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(2, got.Strikes)
}
