package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/storage"
)

type LocalProductService struct {
	mu       sync.RWMutex
	store    *storage.JSONStore
	products map[string]*models.Product
}

type localProductState struct {
	Products map[string]*models.Product `json:"products"`
}

func NewLocalProductService(dataDir string) (*LocalProductService, error) {
	s := &LocalProductService{products: make(map[string]*models.Product)}
	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "products.json")
		if err != nil {
			return nil, err
		}
		s.store = store
		var state localProductState
		if err := store.Load(&state); err != nil {
			return nil, err
		}
		if state.Products != nil {
			s.products = state.Products
		}
	}
	return s, nil
}

func (s *LocalProductService) persistLocked() {
	if s.store == nil {
		return
	}
	_ = s.store.Save(localProductState{Products: s.products})
}

func (s *LocalProductService) Create(_ context.Context, ownerID string, req *models.CreateProductRequest, imageURLs []string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &models.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Images:      append([]string{}, imageURLs...),
		OwnerID:     ownerID,
		OwnerName:   req.OwnerName,
		Contact:     req.Contact,
		Category:    req.Category,
		CreatedAt:   time.Now().UTC(),
	}
	s.products[p.ID] = p
	s.persistLocked()

	out := *p
	return &out, nil
}

func (s *LocalProductService) GetByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	out := *p
	return &out, nil
}

func (s *LocalProductService) ListAll(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *LocalProductService) Delete(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	delete(s.products, id)
	s.persistLocked()
	out := *p
	return &out, nil
}
