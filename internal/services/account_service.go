package services

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/storage"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidPassword = errors.New("invalid password")
)

// AccountService manages locally-issued credentials for deployments that run
// without a Firebase project. Account IDs double as the UID seen by the rest
// of the system.
type AccountService struct {
	mu      sync.RWMutex
	store   *storage.JSONStore
	byID    map[string]*models.Account
	byEmail map[string]string
}

func NewAccountService(dataDir string) (*AccountService, error) {
	s := &AccountService{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "accounts.json")
		if err != nil {
			return nil, err
		}
		s.store = store

		var saved []*models.Account
		if err := s.store.Load(&saved); err != nil {
			return nil, err
		}
		for _, a := range saved {
			s.byID[a.ID] = a
			s.byEmail[a.Email] = a.ID
		}
	}
	return s, nil
}

func (s *AccountService) persistLocked() {
	if s.store == nil {
		return
	}
	all := make([]*models.Account, 0, len(s.byID))
	for _, a := range s.byID {
		all = append(all, a)
	}
	_ = s.store.Save(all)
}

func (s *AccountService) Register(req *models.RegisterRequest) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[req.Email]; exists {
		return nil, ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct := &models.Account{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashed),
		Name:         req.Name,
		CreatedAt:    time.Now(),
	}

	s.byID[acct.ID] = acct
	s.byEmail[acct.Email] = acct.ID
	s.persistLocked()

	return acct, nil
}

func (s *AccountService) Login(req *models.LoginRequest) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[req.Email]
	if !exists {
		return nil, ErrAccountNotFound
	}

	acct := s.byID[id]
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return acct, nil
}

func (s *AccountService) GetByID(id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, exists := s.byID[id]
	if !exists {
		return nil, ErrAccountNotFound
	}

	return acct, nil
}
