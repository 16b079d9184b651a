package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

func TestCreatePetValidationStopsBeforeUpload(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	body := validPetBody()
	delete(body, "certificateBase64")

	rec := env.do(t, http.MethodPost, "/api/pet", "alice", body)
	assert.Equal(http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec, nil)
	assert.False(resp.Success)
	assert.Contains(resp.Errors, "certificateBase64")

	// Nothing uploaded, nothing persisted.
	assert.Zero(env.media.uploadCount())
	pets, err := env.pets.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(pets)
}

func TestCreatePetRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/pet", "", validPetBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePetRoundTrip(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	pet := env.createPet(t, "alice")
	assert.Equal("Rex", pet.Name)
	assert.Equal("alice", pet.OwnerID)
	assert.Equal(models.VerificationPending, pet.VerificationStatus)
	assert.False(pet.IsBanned)
	assert.NotEmpty(pet.CertificateURL)
	assert.Len(pet.ImageURLs, 1)

	var got models.Pet
	rec := env.do(t, http.MethodGet, "/api/pet/"+pet.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &got)
	assert.Equal(pet.ID, got.ID)
	assert.Equal(pet.ImageURLs, got.ImageURLs)
}

func TestCreatePetCertificateUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.media.failCert = true

	rec := env.do(t, http.MethodPost, "/api/pet", "alice", validPetBody())
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	pets, err := env.pets.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pets)
}

func TestCreatePetAllImagesFail(t *testing.T) {
	env := newTestEnv(t)
	env.media.failAll = true

	rec := env.do(t, http.MethodPost, "/api/pet", "alice", validPetBody())
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	pets, err := env.pets.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pets)
}

func TestCreatePetUnsafeImage(t *testing.T) {
	env := newTestEnv(t)
	env.screener.Enabled = true
	env.screener.Detect = func(_ context.Context, _ string) (*services.SafeSearchResult, error) {
		return &services.SafeSearchResult{Violence: "VERY_LIKELY"}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/pet", "alice", validPetBody())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	pets, err := env.pets.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pets)
}

func TestListPetsExcludesOwner(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	env.createPet(t, "alice")
	luna := env.createPet(t, "bob")

	var list []models.PetSummary
	rec := env.do(t, http.MethodGet, "/api/pet?excludeOwnerId=alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &list)

	require.Len(t, list, 1)
	assert.Equal(luna.ID, list[0].ID)
	for _, p := range list {
		assert.NotEqual("alice", p.OwnerID)
	}
}

func TestGetPetNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/pet/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatingRequestScenario(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	rex := env.createPet(t, "alice")
	bobsPet := env.createPet(t, "bob")

	body := map[string]interface{}{
		"action":           "matingRequest",
		"requesterName":    "Bob",
		"requesterPetId":   bobsPet.ID,
		"requesterPetName": "Luna",
		"messageText":      "Luna would love to meet Rex",
	}

	// Unverified target refuses the request.
	rec := env.do(t, http.MethodPatch, "/api/pet/"+rex.ID, "bob", body)
	assert.Equal(http.StatusConflict, rec.Code)

	env.verifyPet(t, rex.ID)

	var mr models.MatingRequest
	rec = env.do(t, http.MethodPatch, "/api/pet/"+rex.ID, "bob", body)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &mr)
	assert.Equal(models.RequestPending, mr.Status)
	assert.Equal("bob", mr.RequesterID)

	// Duplicate pending request from bob is refused.
	rec = env.do(t, http.MethodPatch, "/api/pet/"+rex.ID, "bob", body)
	assert.Equal(http.StatusConflict, rec.Code)

	// The note shows up on the pet document.
	var got models.Pet
	rec = env.do(t, http.MethodGet, "/api/pet/"+rex.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &got)
	require.Len(t, got.MatingHistory, 1)
	require.Len(t, got.Messages, 1)
	assert.Equal("Luna would love to meet Rex", got.Messages[0].Text)
}

func TestSelfMatingRequest(t *testing.T) {
	env := newTestEnv(t)

	rex := env.createPet(t, "alice")
	env.verifyPet(t, rex.ID)

	rec := env.do(t, http.MethodPatch, "/api/pet/"+rex.ID, "alice", map[string]interface{}{
		"action":        "matingRequest",
		"requesterName": "Alice",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRequestStatus(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	rex := env.createPet(t, "alice")
	env.verifyPet(t, rex.ID)

	var mr models.MatingRequest
	rec := env.do(t, http.MethodPatch, "/api/pet/"+rex.ID, "bob", map[string]interface{}{
		"action":        "matingRequest",
		"requesterName": "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &mr)

	path := "/api/pet/" + rex.ID + "/requests/" + mr.ID

	// Only the owner may settle.
	rec = env.do(t, http.MethodPatch, path, "bob", models.UpdateRequestStatusRequest{Status: "accepted"})
	assert.Equal(http.StatusForbidden, rec.Code)

	// Status must be terminal.
	rec = env.do(t, http.MethodPatch, path, "alice", models.UpdateRequestStatusRequest{Status: "pending"})
	assert.Equal(http.StatusBadRequest, rec.Code)

	var settled models.MatingRequest
	rec = env.do(t, http.MethodPatch, path, "alice", models.UpdateRequestStatusRequest{Status: "accepted"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &settled)
	assert.Equal(models.RequestAccepted, settled.Status)

	// Settled requests are final.
	rec = env.do(t, http.MethodPatch, path, "alice", models.UpdateRequestStatusRequest{Status: "rejected"})
	assert.Equal(http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/pet/"+rex.ID+"/requests/missing", "alice", models.UpdateRequestStatusRequest{Status: "accepted"})
	assert.Equal(http.StatusNotFound, rec.Code)
}

func TestDeletePet(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	rex := env.createPet(t, "alice")

	// Only the owner can delete.
	rec := env.do(t, http.MethodDelete, "/api/pet/"+rex.ID, "bob", nil)
	assert.Equal(http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/pet/"+rex.ID, "alice", nil)
	assert.Equal(http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/pet/"+rex.ID, "", nil)
	assert.Equal(http.StatusNotFound, rec.Code)

	// Deleting a missing pet is a clean 404.
	rec = env.do(t, http.MethodDelete, "/api/pet/"+rex.ID, "alice", nil)
	assert.Equal(http.StatusNotFound, rec.Code)
}

func TestListByUser(t *testing.T) {
	assert := assert.New(t)
	env := newTestEnv(t)

	env.createPet(t, "alice")
	env.createPet(t, "alice")
	env.createPet(t, "bob")

	var list []models.Pet
	rec := env.do(t, http.MethodGet, "/api/pet/user/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &list)
	assert.Len(list, 2)
}
