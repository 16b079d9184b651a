package models

import (
	"time"
)

// Verification status of a pet's health certificate.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Mating request lifecycle. Accepted and rejected are terminal.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

type Pet struct {
	ID                 string          `json:"_id"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	Breed              string          `json:"breed"`
	Age                int             `json:"age"`
	Gender             string          `json:"gender"`
	OwnerID            string          `json:"ownerId"`
	CertificateURL     string          `json:"certificateUrl"`
	ImageURLs          []string        `json:"imageUrls"`
	VerificationStatus string          `json:"verificationStatus"`
	IsBanned           bool            `json:"isBanned"`
	AIAdvisory         string          `json:"aiAdvisory,omitempty"`
	Messages           []Message       `json:"messages"`
	MatingHistory      []MatingRequest `json:"matingHistory"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// PetSummary is returned from listings, joined with the owner's location.
type PetSummary struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Breed          string    `json:"breed"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	OwnerID        string    `json:"ownerId"`
	ImageURLs      []string  `json:"imageUrls"`
	CertificateURL string    `json:"certificateUrl,omitempty"`
	Location       *Location `json:"location,omitempty"`
}

// Message is an append-only chat entry attached to a pet.
type Message struct {
	ID         string    `json:"id"`
	PetID      string    `json:"petId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt"`
}

// MatingRequest is a counterparty's proposal to pair with the target pet.
type MatingRequest struct {
	ID               string    `json:"id"`
	PetID            string    `json:"petId"`
	RequesterID      string    `json:"requesterId"`
	RequesterName    string    `json:"requesterName"`
	RequesterPetID   string    `json:"requesterPetId,omitempty"`
	RequesterPetName string    `json:"requesterPetName,omitempty"`
	Status           string    `json:"status"`
	RequestedAt      time.Time `json:"requestedAt"`
}

type CreatePetRequest struct {
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	Breed             string   `json:"breed"`
	Age               *int     `json:"age"`
	Gender            string   `json:"gender"`
	CertificateBase64 string   `json:"certificateBase64"`
	ImagesBase64      []string `json:"imagesBase64"`
}

func (r *CreatePetRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Pet name is required"
	}
	if r.Type == "" {
		errors["type"] = "Pet type is required"
	} else if !isValidPetType(r.Type) {
		errors["type"] = "Unknown pet type"
	}
	if r.Breed == "" {
		errors["breed"] = "Breed is required"
	}
	if r.Age == nil {
		errors["age"] = "Age is required"
	} else if *r.Age < 0 {
		errors["age"] = "Age cannot be negative"
	}
	if r.Gender == "" {
		errors["gender"] = "Gender is required"
	} else if r.Gender != "Male" && r.Gender != "Female" {
		errors["gender"] = "Gender must be Male or Female"
	}
	if r.CertificateBase64 == "" {
		errors["certificateBase64"] = "Certificate is required"
	}
	if len(r.ImagesBase64) == 0 {
		errors["imagesBase64"] = "At least one image is required"
	}

	return errors
}

// PetActionRequest drives PATCH /api/pet/{id}. Action is one of
// "matingRequest" or "addMessage".
type PetActionRequest struct {
	Action           string `json:"action"`
	RequesterID      string `json:"requesterId"`
	RequesterName    string `json:"requesterName"`
	RequesterPetID   string `json:"requesterPetId"`
	RequesterPetName string `json:"requesterPetName"`
	MessageText      string `json:"messageText"`
}

type UpdateRequestStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateRequestStatusRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Status != RequestAccepted && r.Status != RequestRejected {
		errors["status"] = "Status must be accepted or rejected"
	}
	return errors
}

// SendMessageRequest drives POST /api/message. The sender identity comes from
// the auth context.
type SendMessageRequest struct {
	PetID      string `json:"petId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
}

func (r *SendMessageRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.PetID == "" {
		errors["petId"] = "Pet ID is required"
	}
	if r.Text == "" {
		errors["text"] = "Message text is required"
	}
	return errors
}

// PetFilter narrows pet listings. ExcludeOwnerID drops the caller's own pets
// from the browse view.
type PetFilter struct {
	Type           string
	Breed          string
	City           string
	ExcludeOwnerID string
}

var PetTypes = []string{"Dog", "Cat", "Rabbit", "Bird", "Other"}

// BreedOptions mirrors the per-species breed lookup the client uses to constrain
// the free-text breed field.
var BreedOptions = map[string][]string{
	"Dog":    {"Labrador Retriever", "German Shepherd", "Golden Retriever", "Bulldog", "Poodle", "Beagle", "Other"},
	"Cat":    {"Persian", "Maine Coon", "Siamese", "Bengal", "Ragdoll", "British Shorthair", "Other"},
	"Rabbit": {"Holland Lop", "Netherland Dwarf", "Lionhead", "Flemish Giant", "Mini Rex", "Other"},
	"Bird":   {"Parrot", "Cockatiel", "Canary", "Lovebird", "Finch", "Macaw", "Other"},
	"Other":  {"Mixed", "Unknown"},
}

func isValidPetType(t string) bool {
	for _, v := range PetTypes {
		if v == t {
			return true
		}
	}
	return false
}
