package services

import (
	"context"
	"errors"
	"log"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// ErrImageRejected is returned when SafeSearch flags an uploaded image.
var ErrImageRejected = errors.New("image rejected: violates community guidelines")

type SafeSearchResult struct {
	Adult    string
	Violence string
	Racy     string
	Spoof    string
	Medical  string
}

// DetectSafeSearch runs Vision SAFE_SEARCH_DETECTION against a public image URL.
func DetectSafeSearch(ctx context.Context, imageURL string) (*SafeSearchResult, error) {
	// Uses Application Default Credentials.
	svc, err := vision.NewService(ctx, option.WithScopes(vision.CloudPlatformScope))
	if err != nil {
		return nil, err
	}

	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{
			Source: &vision.ImageSource{ImageUri: imageURL},
		},
		Features: []*vision.Feature{
			{Type: "SAFE_SEARCH_DETECTION"},
		},
	}

	call := svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	})
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Responses) == 0 {
		return &SafeSearchResult{}, nil
	}
	ss := resp.Responses[0].SafeSearchAnnotation
	if ss == nil {
		return &SafeSearchResult{}, nil
	}

	return &SafeSearchResult{
		Adult:    ss.Adult,
		Violence: ss.Violence,
		Racy:     ss.Racy,
		Spoof:    ss.Spoof,
		Medical:  ss.Medical,
	}, nil
}

func isUnsafeLikelyOrHigher(l string) bool {
	return l == "LIKELY" || l == "VERY_LIKELY"
}

func (r *SafeSearchResult) IsUnsafe() bool {
	return isUnsafeLikelyOrHigher(r.Adult) || isUnsafeLikelyOrHigher(r.Violence) || isUnsafeLikelyOrHigher(r.Racy)
}

// ImageScreener gates freshly-uploaded media through SafeSearch and records a
// strike against the uploader when something is flagged. A nil screener (or
// Enabled=false) passes everything through.
type ImageScreener struct {
	Enabled bool
	Users   UserStore

	// Detect defaults to DetectSafeSearch.
	Detect func(ctx context.Context, imageURL string) (*SafeSearchResult, error)
}

func NewImageScreener(enabled bool, users UserStore) *ImageScreener {
	return &ImageScreener{Enabled: enabled, Users: users, Detect: DetectSafeSearch}
}

// Screen checks each URL and fails on the first unsafe one.
func (s *ImageScreener) Screen(ctx context.Context, urls []string, uploaderUID string) error {
	if s == nil || !s.Enabled {
		return nil
	}
	detect := s.Detect
	if detect == nil {
		detect = DetectSafeSearch
	}
	for _, u := range urls {
		res, err := detect(ctx, u)
		if err != nil {
			log.Printf("[screener] SafeSearch error url=%s err=%v", u, err)
			return err
		}
		if res.IsUnsafe() {
			log.Printf("[screener] image UNSAFE url=%s adult=%s violence=%s racy=%s", u, res.Adult, res.Violence, res.Racy)
			if s.Users != nil && uploaderUID != "" {
				if err := s.Users.AddStrike(ctx, uploaderUID); err != nil {
					log.Printf("[screener] strike failed uid=%s err=%v", uploaderUID, err)
				}
			}
			return ErrImageRejected
		}
	}
	return nil
}
