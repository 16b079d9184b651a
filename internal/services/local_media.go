package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// LocalMediaStore writes payloads to a directory served under /uploads/.
// Dev-mode stand-in for the hosted gateways.
type LocalMediaStore struct {
	mu        sync.Mutex
	uploadDir string
}

func NewLocalMediaStore(uploadDir string) *LocalMediaStore {
	os.MkdirAll(uploadDir, 0755)
	return &LocalMediaStore{uploadDir: uploadDir}
}

func (m *LocalMediaStore) Upload(_ context.Context, folder string, payload string) (string, error) {
	data, contentType, err := decodeMediaPayload(payload)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Folder becomes a filename prefix so one flat directory can be served.
	name := strings.ReplaceAll(folder, "/", "_") + "-" + uuid.New().String() + extensionFor(contentType)
	path := filepath.Join(m.uploadDir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return "/uploads/" + name, nil
}

func (m *LocalMediaStore) Delete(_ context.Context, rawURL string) error {
	name := strings.TrimPrefix(rawURL, "/uploads/")
	if name == rawURL || name == "" || strings.Contains(name, "/") {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(filepath.Join(m.uploadDir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
