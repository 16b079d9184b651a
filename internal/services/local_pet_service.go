package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/storage"
)

// LocalPetService is the document store used when no MongoDB is configured:
// maps guarded by a mutex, optionally persisted to a JSON file. It enforces
// the same invariants as the Mongo implementation.
type LocalPetService struct {
	mu       sync.RWMutex
	store    *storage.JSONStore
	pets     map[string]*models.Pet
	messages map[string][]models.Message       // petID -> ordered messages
	requests map[string][]models.MatingRequest // petID -> ordered requests
	users    *LocalUserService
}

type localPetState struct {
	Pets     map[string]*models.Pet            `json:"pets"`
	Messages map[string][]models.Message       `json:"messages"`
	Requests map[string][]models.MatingRequest `json:"requests"`
}

// NewLocalPetService loads prior state from dataDir when set; an empty dataDir
// keeps everything in memory (tests).
func NewLocalPetService(dataDir string) (*LocalPetService, error) {
	s := &LocalPetService{
		pets:     make(map[string]*models.Pet),
		messages: make(map[string][]models.Message),
		requests: make(map[string][]models.MatingRequest),
	}
	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "pets.json")
		if err != nil {
			return nil, err
		}
		s.store = store
		var state localPetState
		if err := store.Load(&state); err != nil {
			return nil, err
		}
		if state.Pets != nil {
			s.pets = state.Pets
		}
		if state.Messages != nil {
			s.messages = state.Messages
		}
		if state.Requests != nil {
			s.requests = state.Requests
		}
	}
	return s, nil
}

// SetUserService wires the user store used for owner-location joins and the
// city filter.
func (s *LocalPetService) SetUserService(users *LocalUserService) {
	s.users = users
}

func (s *LocalPetService) persistLocked() {
	if s.store == nil {
		return
	}
	state := localPetState{Pets: s.pets, Messages: s.messages, Requests: s.requests}
	_ = s.store.Save(state)
}

func copyPet(p *models.Pet) *models.Pet {
	cp := *p
	cp.ImageURLs = append([]string{}, p.ImageURLs...)
	cp.Messages = []models.Message{}
	cp.MatingHistory = []models.MatingRequest{}
	return &cp
}

func (s *LocalPetService) Create(_ context.Context, p *NewPet) (*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet := &models.Pet{
		ID:                 uuid.New().String(),
		Name:               p.Name,
		Type:               p.Type,
		Breed:              p.Breed,
		Age:                p.Age,
		Gender:             p.Gender,
		OwnerID:            p.OwnerID,
		CertificateURL:     p.CertificateURL,
		ImageURLs:          append([]string{}, p.ImageURLs...),
		VerificationStatus: models.VerificationPending,
		IsBanned:           false,
		Messages:           []models.Message{},
		MatingHistory:      []models.MatingRequest{},
		CreatedAt:          time.Now().UTC(),
	}
	s.pets[pet.ID] = pet
	s.persistLocked()
	return copyPet(pet), nil
}

func (s *LocalPetService) GetByID(_ context.Context, id string) (*models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pet, ok := s.pets[id]
	if !ok {
		return nil, ErrPetNotFound
	}
	out := copyPet(pet)
	out.Messages = append(out.Messages, s.messages[id]...)
	out.MatingHistory = append(out.MatingHistory, s.requests[id]...)
	return out, nil
}

func (s *LocalPetService) List(ctx context.Context, f *models.PetFilter) ([]models.PetSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cityUIDs map[string]struct{}
	if f.City != "" && s.users != nil {
		cityUIDs = s.users.uidsInCity(f.City)
	}

	out := make([]models.PetSummary, 0)
	for _, pet := range s.pets {
		if pet.IsBanned {
			continue
		}
		if f.Type != "" && pet.Type != f.Type {
			continue
		}
		if f.Breed != "" && pet.Breed != f.Breed {
			continue
		}
		if f.ExcludeOwnerID != "" && pet.OwnerID == f.ExcludeOwnerID {
			continue
		}
		if cityUIDs != nil {
			if _, ok := cityUIDs[pet.OwnerID]; !ok {
				continue
			}
		}
		var loc *models.Location
		if s.users != nil {
			loc = s.users.locationOf(pet.OwnerID)
		}
		out = append(out, models.PetSummary{
			ID:             pet.ID,
			Name:           pet.Name,
			Type:           pet.Type,
			Breed:          pet.Breed,
			Age:            pet.Age,
			Gender:         pet.Gender,
			OwnerID:        pet.OwnerID,
			ImageURLs:      append([]string{}, pet.ImageURLs...),
			CertificateURL: pet.CertificateURL,
			Location:       loc,
		})
	}
	return out, nil
}

func (s *LocalPetService) ListByOwner(_ context.Context, ownerID string) ([]models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Pet, 0)
	for _, pet := range s.pets {
		if pet.OwnerID == ownerID {
			out = append(out, *copyPet(pet))
		}
	}
	return out, nil
}

func (s *LocalPetService) ListAll(_ context.Context) ([]models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Pet, 0, len(s.pets))
	for _, pet := range s.pets {
		out = append(out, *copyPet(pet))
	}
	return out, nil
}

func (s *LocalPetService) Delete(_ context.Context, id string) (*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[id]
	if !ok {
		return nil, ErrPetNotFound
	}
	delete(s.pets, id)
	delete(s.messages, id)
	delete(s.requests, id)
	s.persistLocked()
	return copyPet(pet), nil
}

func (s *LocalPetService) AddMessage(_ context.Context, petID, senderID, senderName, text string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[petID]; !ok {
		return nil, ErrPetNotFound
	}
	msg := models.Message{
		ID:         uuid.New().String(),
		PetID:      petID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	s.messages[petID] = append(s.messages[petID], msg)
	s.persistLocked()
	return &msg, nil
}

func (s *LocalPetService) MirrorMessage(_ context.Context, ownerUID, petID, senderID, senderName, text string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := models.Message{
		ID:         uuid.New().String(),
		PetID:      petID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		SentAt:     time.Now().UTC(),
	}
	key := mirrorKey(ownerUID)
	s.messages[key] = append(s.messages[key], msg)
	s.persistLocked()
	return &msg, nil
}

func (s *LocalPetService) ListMirrorMessages(_ context.Context, ownerUID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.messages[mirrorKey(ownerUID)]
	out := make([]models.Message, len(src))
	copy(out, src)
	return out, nil
}

func (s *LocalPetService) AddMatingRequest(_ context.Context, req *NewMatingRequest) (*models.MatingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[req.PetID]
	if !ok {
		return nil, ErrPetNotFound
	}
	if pet.IsBanned {
		return nil, ErrPetBanned
	}
	if pet.VerificationStatus != models.VerificationVerified {
		return nil, ErrPetNotVerified
	}
	if pet.OwnerID == req.RequesterID {
		return nil, ErrSelfRequest
	}
	// Same one-pending-per-requester rule the Mongo partial index enforces;
	// here the mutex makes check-then-insert atomic.
	for _, r := range s.requests[req.PetID] {
		if r.RequesterID == req.RequesterID && r.Status == models.RequestPending {
			return nil, ErrDuplicateRequest
		}
	}

	mr := models.MatingRequest{
		ID:               uuid.New().String(),
		PetID:            req.PetID,
		RequesterID:      req.RequesterID,
		RequesterName:    req.RequesterName,
		RequesterPetID:   req.RequesterPetID,
		RequesterPetName: req.RequesterPetName,
		Status:           models.RequestPending,
		RequestedAt:      time.Now().UTC(),
	}
	s.requests[req.PetID] = append(s.requests[req.PetID], mr)

	if req.Note != "" {
		s.messages[req.PetID] = append(s.messages[req.PetID], models.Message{
			ID:         uuid.New().String(),
			PetID:      req.PetID,
			SenderID:   req.RequesterID,
			SenderName: req.RequesterName,
			Text:       req.Note,
			SentAt:     time.Now().UTC(),
		})
	}
	s.persistLocked()
	return &mr, nil
}

func (s *LocalPetService) SetRequestStatus(_ context.Context, petID, requestID, ownerID, status string) (*models.MatingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[petID]
	if !ok {
		return nil, ErrPetNotFound
	}
	if pet.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}

	reqs := s.requests[petID]
	for i := range reqs {
		if reqs[i].ID != requestID {
			continue
		}
		if reqs[i].Status != models.RequestPending {
			return nil, ErrRequestSettled
		}
		reqs[i].Status = status
		s.persistLocked()
		out := reqs[i]
		return &out, nil
	}
	return nil, ErrRequestNotFound
}

func (s *LocalPetService) SetVerification(_ context.Context, petID, status string) (*models.Pet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[petID]
	if !ok {
		return nil, ErrPetNotFound
	}
	pet.VerificationStatus = status
	pet.IsBanned = status == models.VerificationRejected
	s.persistLocked()
	return copyPet(pet), nil
}

func (s *LocalPetService) SetAdvisory(_ context.Context, petID, advisory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet, ok := s.pets[petID]
	if !ok {
		return ErrPetNotFound
	}
	pet.AIAdvisory = advisory
	s.persistLocked()
	return nil
}

func (s *LocalPetService) ListPendingWithoutAdvisory(_ context.Context, limit int) ([]models.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]models.Pet, 0)
	for _, pet := range s.pets {
		if len(out) >= limit {
			break
		}
		if pet.VerificationStatus == models.VerificationPending && pet.CertificateURL != "" && pet.AIAdvisory == "" {
			out = append(out, *copyPet(pet))
		}
	}
	return out, nil
}
