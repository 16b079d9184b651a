package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmate/backend/internal/models"
)

func TestDecodeMediaPayload(t *testing.T) {
	assert := assert.New(t)

	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	encoded := base64.StdEncoding.EncodeToString(raw)

	data, contentType, err := decodeMediaPayload(encoded)
	require.NoError(t, err)
	assert.Equal(raw, data)
	assert.Equal("image/jpeg", contentType)

	data, contentType, err = decodeMediaPayload("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(raw, data)
	assert.Equal("image/png", contentType)

	_, _, err = decodeMediaPayload("not-base64!!!")
	assert.ErrorIs(err, ErrInvalidImage)

	_, _, err = decodeMediaPayload("data:image/png;base64")
	assert.ErrorIs(err, ErrInvalidImage)

	_, _, err = decodeMediaPayload("")
	assert.ErrorIs(err, ErrInvalidImage)
}

func TestImageScreenerStrikes(t *testing.T) {
	assert := assert.New(t)
	users, err := NewLocalUserService("")
	require.NoError(t, err)

	screener := NewImageScreener(true, users)
	screener.Detect = func(_ context.Context, url string) (*SafeSearchResult, error) {
		if url == "https://media.example/bad.jpg" {
			return &SafeSearchResult{Adult: "VERY_LIKELY"}, nil
		}
		return &SafeSearchResult{Adult: "VERY_UNLIKELY"}, nil
	}

	ctx := context.Background()
	user, err := users.Create(ctx, &models.CreateUserRequest{
		Name: "Mallory", Username: "mallory", Phone: "666", FirebaseUID: "uid-mallory",
	})
	require.NoError(t, err)

	err = screener.Screen(ctx, []string{"https://media.example/ok.jpg"}, "uid-mallory")
	assert.NoError(err)

	err = screener.Screen(ctx, []string{"https://media.example/bad.jpg"}, "uid-mallory")
	assert.ErrorIs(err, ErrImageRejected)

	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(1, got.Strikes)

	// Disabled screener passes everything.
	off := NewImageScreener(false, users)
	assert.NoError(off.Screen(ctx, []string{"https://media.example/bad.jpg"}, "uid-mallory"))
}
