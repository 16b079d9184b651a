package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/storage"
)

type LocalUserService struct {
	mu         sync.RWMutex
	store      *storage.JSONStore
	users      map[string]*models.User // userID -> user
	byUsername map[string]string       // username -> userID
	byUID      map[string]string       // firebaseUid -> userID
}

type localUserState struct {
	Users map[string]*models.User `json:"users"`
}

func NewLocalUserService(dataDir string) (*LocalUserService, error) {
	s := &LocalUserService{
		users:      make(map[string]*models.User),
		byUsername: make(map[string]string),
		byUID:      make(map[string]string),
	}
	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "users.json")
		if err != nil {
			return nil, err
		}
		s.store = store
		var state localUserState
		if err := store.Load(&state); err != nil {
			return nil, err
		}
		for id, u := range state.Users {
			s.users[id] = u
			s.byUsername[u.Username] = id
			s.byUID[u.FirebaseUID] = id
		}
	}
	return s, nil
}

func (s *LocalUserService) persistLocked() {
	if s.store == nil {
		return
	}
	_ = s.store.Save(localUserState{Users: s.users})
}

func (s *LocalUserService) Create(_ context.Context, req *models.CreateUserRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[req.Username]; exists {
		return nil, ErrUsernameTaken
	}
	if _, exists := s.byUID[req.FirebaseUID]; exists {
		return nil, ErrUsernameTaken
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Username:    req.Username,
		Phone:       req.Phone,
		FirebaseUID: req.FirebaseUID,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.users[user.ID] = user
	s.byUsername[user.Username] = user.ID
	s.byUID[user.FirebaseUID] = user.ID
	s.persistLocked()

	out := *user
	return &out, nil
}

func (s *LocalUserService) GetByUID(_ context.Context, firebaseUID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUID[firebaseUID]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (s *LocalUserService) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (s *LocalUserService) ListAll(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *LocalUserService) SetBanned(_ context.Context, id string, banned bool) (*models.User, error) {
	return s.setFlag(id, func(u *models.User) { u.IsBanned = banned })
}

func (s *LocalUserService) SetAdmin(_ context.Context, id string, admin bool) (*models.User, error) {
	return s.setFlag(id, func(u *models.User) { u.IsAdmin = admin })
}

func (s *LocalUserService) setFlag(id string, apply func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	apply(user)
	user.UpdatedAt = time.Now().UTC()
	s.persistLocked()
	out := *user
	return &out, nil
}

func (s *LocalUserService) AddStrike(_ context.Context, firebaseUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUID[firebaseUID]
	if !ok {
		return nil
	}
	s.users[id].Strikes++
	s.users[id].UpdatedAt = time.Now().UTC()
	s.persistLocked()
	return nil
}

// uidsInCity and locationOf serve LocalPetService joins; callers hold no lock.
func (s *LocalUserService) uidsInCity(city string) map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{})
	for _, u := range s.users {
		if u.Location != nil && u.Location.City == city {
			out[u.FirebaseUID] = struct{}{}
		}
	}
	return out
}

func (s *LocalUserService) locationOf(firebaseUID string) *models.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUID[firebaseUID]
	if !ok {
		return nil
	}
	return s.users[id].Location
}
