package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCSMediaStore stores payloads as objects in a Firebase Storage bucket and
// hands back tokenized download URLs.
type GCSMediaStore struct {
	gcs    *storage.Client
	bucket string
}

func NewGCSMediaStore(ctx context.Context, bucket string) (*GCSMediaStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("media: storage client: %w", err)
	}
	return &GCSMediaStore{gcs: client, bucket: bucket}, nil
}

func (m *GCSMediaStore) Upload(ctx context.Context, folder string, payload string) (string, error) {
	data, contentType, err := decodeMediaPayload(payload)
	if err != nil {
		return "", err
	}

	name := folder + "/" + uuid.New().String() + extensionFor(contentType)
	token := newDownloadToken()

	obj := m.gcs.Bucket(m.bucket).Object(name)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return downloadURL(m.bucket, name, token), nil
}

// Delete parses the object name back out of a download URL and removes the
// object. URLs pointing at other hosts are ignored.
func (m *GCSMediaStore) Delete(ctx context.Context, rawURL string) error {
	name, ok := m.objectNameFromURL(rawURL)
	if !ok {
		return nil
	}
	err := m.gcs.Bucket(m.bucket).Object(name).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}

func (m *GCSMediaStore) objectNameFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	prefix := "/v0/b/" + m.bucket + "/o/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(u.Path, prefix))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

func newDownloadToken() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), os.Getpid())
}

func downloadURL(bucket, objectName, token string) string {
	return fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket,
		url.PathEscape(objectName),
		url.QueryEscape(token),
	)
}
