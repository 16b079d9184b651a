package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeminiDefaults(t *testing.T) {
	c := NewGeminiClient("key", "")
	assert.Equal(t, "gemini-2.0-flash", c.Model)

	c = NewGeminiClient("key", "gemini-1.5-pro")
	assert.Equal(t, "gemini-1.5-pro", c.Model)
}

func TestGeminiUnavailableWithoutKey(t *testing.T) {
	c := NewGeminiClient("", "")

	_, err := c.Chat(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}
