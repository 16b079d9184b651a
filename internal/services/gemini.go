package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrAssistantUnavailable is returned when the language-model backend cannot
// produce an answer.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// GeminiClient talks to the Generative Language REST API directly.
type GeminiClient struct {
	APIKey string
	Model  string
	client *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{
		APIKey: apiKey,
		Model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GeminiClient) generate(ctx context.Context, parts []geminiPart) (string, error) {
	if g.APIKey == "" {
		return "", ErrAssistantUnavailable
	}

	body, err := json.Marshal(geminiRequest{Contents: []geminiContent{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf(geminiEndpoint, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAssistantUnavailable, resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: bad response", ErrAssistantUnavailable)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrAssistantUnavailable, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrAssistantUnavailable
	}
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// AnalyzeCertificate fetches a certificate image and asks the model whether
// it looks like a plausible veterinary document for the described pet. The
// returned text is an advisory for admin review, never an automatic verdict.
func (g *GeminiClient) AnalyzeCertificate(ctx context.Context, certURL, petName, petType, breed string, age int) (string, error) {
	data, mimeType, err := g.fetchImage(ctx, certURL)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"You are reviewing a veterinary certificate uploaded for a pet matchmaking site. "+
			"The owner claims the pet is a %s named %q, breed %q, age %d. "+
			"In two or three sentences, say whether this image looks like a genuine vet certificate "+
			"and whether its details are consistent with the claim. Flag anything suspicious.",
		petType, petName, breed, age,
	)

	parts := []geminiPart{
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
		{Text: prompt},
	}
	return g.generate(ctx, parts)
}

// Chat answers a free-form question, optionally grounded on caller-supplied
// context such as the user's pet listings.
func (g *GeminiClient) Chat(ctx context.Context, contextText, question string) (string, error) {
	prompt := question
	if contextText != "" {
		prompt = "Context about the user's pets:\n" + contextText +
			"\n\nAnswer the following question as a helpful pet-care assistant:\n" + question
	}
	return g.generate(ctx, []geminiPart{{Text: prompt}})
}

func (g *GeminiClient) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch certificate: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.Contains(mimeType, "octet-stream") {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// CertificateAnalyzer is the capability pets' verification advice depends on.
type CertificateAnalyzer interface {
	AnalyzeCertificate(ctx context.Context, certURL, petName, petType, breed string, age int) (string, error)
}

// Assistant answers pet-care questions.
type Assistant interface {
	Chat(ctx context.Context, contextText, question string) (string, error)
}
