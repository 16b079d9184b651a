package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmate/backend/internal/models"
)

func newTestPetService(t *testing.T) *LocalPetService {
	t.Helper()
	s, err := NewLocalPetService("")
	require.NoError(t, err)
	return s
}

func createTestPet(t *testing.T, s *LocalPetService, ownerID string) *models.Pet {
	t.Helper()
	pet, err := s.Create(context.Background(), &NewPet{
		Name:           "Rex",
		Type:           "Dog",
		Breed:          "Labrador Retriever",
		Age:            3,
		Gender:         "Male",
		OwnerID:        ownerID,
		CertificateURL: "https://media.example/cert.jpg",
		ImageURLs:      []string{"https://media.example/rex.jpg"},
	})
	require.NoError(t, err)
	return pet
}

func TestCreatePetDefaults(t *testing.T) {
	s := newTestPetService(t)
	pet := createTestPet(t, s, "alice")

	assert.Equal(t, models.VerificationPending, pet.VerificationStatus)
	assert.False(t, pet.IsBanned)
	assert.NotEmpty(t, pet.ID)
	assert.Empty(t, pet.Messages)
	assert.Empty(t, pet.MatingHistory)
}

func TestMatingRequestRequiresVerification(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")

	_, err := s.AddMatingRequest(ctx, &NewMatingRequest{
		PetID:         pet.ID,
		RequesterID:   "bob",
		RequesterName: "Bob",
	})
	assert.ErrorIs(err, ErrPetNotVerified)

	got, err := s.GetByID(ctx, pet.ID)
	assert.NoError(err)
	assert.Empty(got.MatingHistory)
}

func TestMatingRequestFlow(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")
	_, err := s.SetVerification(ctx, pet.ID, models.VerificationVerified)
	require.NoError(t, err)

	// Owner cannot request their own pet.
	_, err = s.AddMatingRequest(ctx, &NewMatingRequest{PetID: pet.ID, RequesterID: "alice"})
	assert.ErrorIs(err, ErrSelfRequest)

	mr, err := s.AddMatingRequest(ctx, &NewMatingRequest{
		PetID:         pet.ID,
		RequesterID:   "bob",
		RequesterName: "Bob",
		Note:          "Luna would love to meet Rex",
	})
	require.NoError(t, err)
	assert.Equal(models.RequestPending, mr.Status)

	// Second pending request from the same requester is refused.
	_, err = s.AddMatingRequest(ctx, &NewMatingRequest{PetID: pet.ID, RequesterID: "bob"})
	assert.ErrorIs(err, ErrDuplicateRequest)

	got, err := s.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Len(got.MatingHistory, 1)
	// The note landed as a message.
	require.Len(t, got.Messages, 1)
	assert.Equal("Luna would love to meet Rex", got.Messages[0].Text)
}

func TestSetRequestStatus(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")
	_, err := s.SetVerification(ctx, pet.ID, models.VerificationVerified)
	require.NoError(t, err)
	mr, err := s.AddMatingRequest(ctx, &NewMatingRequest{PetID: pet.ID, RequesterID: "bob"})
	require.NoError(t, err)

	// Only the owner can settle.
	_, err = s.SetRequestStatus(ctx, pet.ID, mr.ID, "bob", models.RequestAccepted)
	assert.ErrorIs(err, ErrUnauthorized)

	settled, err := s.SetRequestStatus(ctx, pet.ID, mr.ID, "alice", models.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(models.RequestAccepted, settled.Status)

	// Settled requests never revert.
	_, err = s.SetRequestStatus(ctx, pet.ID, mr.ID, "alice", models.RequestRejected)
	assert.ErrorIs(err, ErrRequestSettled)

	// After settling, bob may request again.
	_, err = s.AddMatingRequest(ctx, &NewMatingRequest{PetID: pet.ID, RequesterID: "bob"})
	assert.NoError(err)

	_, err = s.SetRequestStatus(ctx, pet.ID, "missing", "alice", models.RequestAccepted)
	assert.ErrorIs(err, ErrRequestNotFound)
}

func TestRejectionBansInOneStep(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")

	updated, err := s.SetVerification(ctx, pet.ID, models.VerificationRejected)
	require.NoError(t, err)
	assert.Equal(models.VerificationRejected, updated.VerificationStatus)
	assert.True(updated.IsBanned)

	// Re-verifying lifts the ban through the same coupled write.
	updated, err = s.SetVerification(ctx, pet.ID, models.VerificationVerified)
	require.NoError(t, err)
	assert.False(updated.IsBanned)
}

func TestBannedPetRefusesRequestsAndHidesFromListings(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")
	_, err := s.SetVerification(ctx, pet.ID, models.VerificationRejected)
	require.NoError(t, err)

	_, err = s.AddMatingRequest(ctx, &NewMatingRequest{PetID: pet.ID, RequesterID: "bob"})
	assert.ErrorIs(err, ErrPetBanned)

	list, err := s.List(ctx, &models.PetFilter{})
	require.NoError(t, err)
	assert.Empty(list)
}

func TestListFilters(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	users, err := NewLocalUserService("")
	require.NoError(t, err)
	s.SetUserService(users)
	ctx := context.Background()

	_, err = users.Create(ctx, &models.CreateUserRequest{
		Name: "Alice", Username: "alice", Phone: "111", FirebaseUID: "alice",
		Location: &models.Location{Lat: 1, Lng: 2, City: "Lisbon"},
	})
	require.NoError(t, err)
	_, err = users.Create(ctx, &models.CreateUserRequest{
		Name: "Bob", Username: "bob", Phone: "222", FirebaseUID: "bob",
		Location: &models.Location{Lat: 3, Lng: 4, City: "Porto"},
	})
	require.NoError(t, err)

	rex := createTestPet(t, s, "alice")
	_, err = s.Create(ctx, &NewPet{
		Name: "Luna", Type: "Cat", Breed: "Siamese", Age: 2, Gender: "Female",
		OwnerID: "bob", CertificateURL: "c", ImageURLs: []string{"i"},
	})
	require.NoError(t, err)

	list, err := s.List(ctx, &models.PetFilter{ExcludeOwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal("Luna", list[0].Name)

	list, err = s.List(ctx, &models.PetFilter{Type: "Dog"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(rex.ID, list[0].ID)

	list, err = s.List(ctx, &models.PetFilter{City: "Lisbon"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(rex.ID, list[0].ID)
	// Owner location is joined onto the summary.
	require.NotNil(t, list[0].Location)
	assert.Equal("Lisbon", list[0].Location.City)
}

func TestDeleteMissingPet(t *testing.T) {
	s := newTestPetService(t)

	_, err := s.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestDeleteRemovesHistory(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")
	_, err := s.AddMessage(ctx, pet.ID, "bob", "Bob", "hello")
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(pet.ID, deleted.ID)
	assert.Equal([]string{"https://media.example/rex.jpg"}, deleted.ImageURLs)

	_, err = s.GetByID(ctx, pet.ID)
	assert.ErrorIs(err, ErrPetNotFound)
}

func TestMirrorMessages(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")

	_, err := s.MirrorMessage(ctx, "bob", pet.ID, "bob", "Bob", "hi Rex")
	require.NoError(t, err)

	msgs, err := s.ListMirrorMessages(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(pet.ID, msgs[0].PetID)
	assert.Equal("hi Rex", msgs[0].Text)

	// The mirror copy never leaks into the pet's own thread.
	got, err := s.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Empty(got.Messages)

	other, err := s.ListMirrorMessages(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(other)
}

func TestListPendingWithoutAdvisory(t *testing.T) {
	assert := assert.New(t)
	s := newTestPetService(t)
	ctx := context.Background()

	pet := createTestPet(t, s, "alice")
	verified := createTestPet(t, s, "alice")
	_, err := s.SetVerification(ctx, verified.ID, models.VerificationVerified)
	require.NoError(t, err)

	pending, err := s.ListPendingWithoutAdvisory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(pet.ID, pending[0].ID)

	require.NoError(t, s.SetAdvisory(ctx, pet.ID, "Looks genuine."))

	pending, err = s.ListPendingWithoutAdvisory(ctx, 10)
	require.NoError(t, err)
	assert.Empty(pending)

	got, err := s.GetByID(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal("Looks genuine.", got.AIAdvisory)
}
