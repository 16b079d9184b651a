package services

import (
	"context"

	"github.com/pawmate/backend/internal/models"
)

// NewPet carries the already-uploaded media URLs for a pet about to be saved.
type NewPet struct {
	Name           string
	Type           string
	Breed          string
	Age            int
	Gender         string
	OwnerID        string
	CertificateURL string
	ImageURLs      []string
}

// NewMatingRequest carries a counterparty's proposal before it is persisted.
type NewMatingRequest struct {
	PetID            string
	RequesterID      string
	RequesterName    string
	RequesterPetID   string
	RequesterPetName string
	Note             string
}

type PetStore interface {
	Create(ctx context.Context, p *NewPet) (*models.Pet, error)
	GetByID(ctx context.Context, id string) (*models.Pet, error)
	List(ctx context.Context, f *models.PetFilter) ([]models.PetSummary, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Pet, error)
	ListAll(ctx context.Context) ([]models.Pet, error)

	// Delete removes the pet and its messages/requests and returns the deleted
	// document so callers can clean up its media.
	Delete(ctx context.Context, id string) (*models.Pet, error)

	AddMessage(ctx context.Context, petID, senderID, senderName, text string) (*models.Message, error)

	// AddMatingRequest enforces that the target is verified and not banned,
	// the requester is not the owner, and the no-duplicate-pending rule, all
	// atomically.
	AddMatingRequest(ctx context.Context, req *NewMatingRequest) (*models.MatingRequest, error)

	// SetRequestStatus settles a pending request. Only the pet owner may call
	// it and settled requests never revert.
	SetRequestStatus(ctx context.Context, petID, requestID, ownerID, status string) (*models.MatingRequest, error)

	// SetVerification writes the verification status and the coupled banned
	// flag (banned exactly when rejected) in a single update.
	SetVerification(ctx context.Context, petID, status string) (*models.Pet, error)

	SetAdvisory(ctx context.Context, petID, advisory string) error
	ListPendingWithoutAdvisory(ctx context.Context, limit int) ([]models.Pet, error)

	// MirrorMessage files a copy of a sent message under the sender's own
	// conversation log, keyed by owner instead of pet.
	MirrorMessage(ctx context.Context, ownerUID, petID, senderID, senderName, text string) (*models.Message, error)
	ListMirrorMessages(ctx context.Context, ownerUID string) ([]models.Message, error)
}

// mirrorKey never collides with pet IDs, which are bare UUIDs.
func mirrorKey(ownerUID string) string { return "mirror:" + ownerUID }

type UserStore interface {
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	GetByUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	SetBanned(ctx context.Context, id string, banned bool) (*models.User, error)
	SetAdmin(ctx context.Context, id string, admin bool) (*models.User, error)
	AddStrike(ctx context.Context, firebaseUID string) error
}

type ProductStore interface {
	Create(ctx context.Context, ownerID string, req *models.CreateProductRequest, imageURLs []string) (*models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
}

type SettingsStore interface {
	// IsMaintenanceMode defaults to false when the singleton is absent.
	IsMaintenanceMode(ctx context.Context) (bool, error)
	SetMaintenanceMode(ctx context.Context, on bool) (*models.SystemSettings, error)
}
