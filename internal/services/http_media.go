package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPMediaStore talks to an imgbb-compatible hosted image API: base64 in,
// permanent URL out.
type HTTPMediaStore struct {
	APIKey     string
	Endpoint   string
	HTTPClient *http.Client
}

func NewHTTPMediaStore(apiKey string) *HTTPMediaStore {
	return &HTTPMediaStore{
		APIKey:   strings.TrimSpace(apiKey),
		Endpoint: "https://api.imgbb.com/1/upload",
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type imgbbUploadResponse struct {
	Data struct {
		URL       string `json:"url"`
		DeleteURL string `json:"delete_url"`
	} `json:"data"`
	Success bool `json:"success"`
}

func (m *HTTPMediaStore) Upload(ctx context.Context, folder string, payload string) (string, error) {
	if m.APIKey == "" {
		return "", fmt.Errorf("%w: missing MEDIA_API_KEY", ErrUploadFailed)
	}

	// The hosted API wants bare base64 with no data-URI prefix.
	if strings.HasPrefix(payload, "data:") {
		if comma := strings.Index(payload, ","); comma >= 0 {
			payload = payload[comma+1:]
		}
	}
	if payload == "" {
		return "", ErrInvalidImage
	}

	form := url.Values{}
	form.Set("key", m.APIKey)
	form.Set("image", payload)
	form.Set("name", folder)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: media host http %d", ErrUploadFailed, resp.StatusCode)
	}

	var out imgbbUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if !out.Success || out.Data.URL == "" {
		return "", fmt.Errorf("%w: media host returned no url", ErrUploadFailed)
	}
	return out.Data.URL, nil
}

// Delete is a no-op: the hosted API exposes deletion only through one-shot
// browser links, not an authenticated endpoint. Cleanup stays best-effort,
// so log and move on.
func (m *HTTPMediaStore) Delete(_ context.Context, rawURL string) error {
	log.Printf("[media] hosted gateway cannot delete %s; skipping", rawURL)
	return nil
}
