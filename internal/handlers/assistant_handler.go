package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pawmate/backend/internal/middleware"
	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

// AssistantHandler answers pet-care questions, grounding the model on the
// caller's own pet roster.
type AssistantHandler struct {
	assistant services.Assistant
	pets      services.PetStore
}

func NewAssistantHandler(assistant services.Assistant, pets services.PetStore) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, pets: pets}
}

type assistantRequest struct {
	Prompt string `json:"prompt"`
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req assistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"prompt": "Prompt is required"}))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	contextText := ""
	if pets, err := h.pets.ListByOwner(ctx, userID); err == nil {
		var sb strings.Builder
		for _, p := range pets {
			fmt.Fprintf(&sb, "- %s: %s (%s), age %d, %s\n", p.Name, p.Type, p.Breed, p.Age, p.Gender)
		}
		contextText = sb.String()
	}

	answer, err := h.assistant.Chat(ctx, contextText, req.Prompt)
	if err != nil {
		if errors.Is(err, services.ErrAssistantUnavailable) {
			log.Printf("[Assistant] Unavailable: %v", err)
			writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Assistant is temporarily unavailable"))
			return
		}
		log.Printf("[Assistant] Error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to answer"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"answer": answer}))
}
