package services

import (
	"context"
	"sync"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/storage"
)

type LocalSettingsService struct {
	mu       sync.RWMutex
	store    *storage.JSONStore
	settings models.SystemSettings
}

func NewLocalSettingsService(dataDir string) (*LocalSettingsService, error) {
	s := &LocalSettingsService{
		settings: models.SystemSettings{ID: models.SystemSettingsID},
	}
	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "settings.json")
		if err != nil {
			return nil, err
		}
		s.store = store
		var loaded models.SystemSettings
		if err := store.Load(&loaded); err != nil {
			return nil, err
		}
		if loaded.ID != "" {
			s.settings = loaded
		}
	}
	return s, nil
}

func (s *LocalSettingsService) IsMaintenanceMode(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.IsMaintenanceMode, nil
}

func (s *LocalSettingsService) SetMaintenanceMode(_ context.Context, on bool) (*models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.IsMaintenanceMode = on
	if s.store != nil {
		_ = s.store.Save(s.settings)
	}
	out := s.settings
	return &out, nil
}
