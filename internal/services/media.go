package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidImage = errors.New("invalid image payload")

	// ErrUploadFailed wraps media-gateway failures; handlers translate it to a
	// 502 without leaking the upstream message.
	ErrUploadFailed = errors.New("media upload failed")
)

// MediaStore is the capability interface in front of the external media host:
// it turns an inline base64 payload into a permanent URL, and best-effort
// deletes by URL.
type MediaStore interface {
	Upload(ctx context.Context, folder string, payload string) (string, error)
	Delete(ctx context.Context, url string) error
}

// decodeMediaPayload accepts either a bare base64 string or a data URI and
// returns the raw bytes plus the declared content type.
func decodeMediaPayload(payload string) ([]byte, string, error) {
	contentType := "image/jpeg"
	raw := payload

	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma < 0 {
			return nil, "", ErrInvalidImage
		}
		meta := payload[len("data:"):comma]
		raw = payload[comma+1:]
		if semi := strings.Index(meta, ";"); semi >= 0 {
			meta = meta[:semi]
		}
		if meta != "" {
			contentType = meta
		}
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, "", ErrInvalidImage
	}
	return data, contentType, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".jpg"
	}
}
