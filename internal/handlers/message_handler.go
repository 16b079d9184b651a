package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/pawmate/backend/internal/middleware"
	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

// MessageHandler serves direct messages: the message lands on the target
// pet's thread and a copy is filed under the sender's own conversation log.
type MessageHandler struct {
	pets     services.PetStore
	notifier *services.Notifier
}

func NewMessageHandler(pets services.PetStore, notifier *services.Notifier) *MessageHandler {
	return &MessageHandler{pets: pets, notifier: notifier}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	msg, err := h.pets.AddMessage(ctx, req.PetID, userID, req.SenderName, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrPetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
			return
		}
		log.Printf("[SendMessage] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to send message"))
		return
	}

	// The sender's copy is bookkeeping; losing it never fails the send.
	if _, err := h.pets.MirrorMessage(ctx, userID, req.PetID, userID, req.SenderName, req.Text); err != nil {
		log.Printf("[SendMessage] Mirror copy failed: %v", err)
	}

	h.notifier.Publish(req.PetID, *msg)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(msg))
}

// Sent returns the caller's own conversation log.
func (h *MessageHandler) Sent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	msgs, err := h.pets.ListMirrorMessages(ctx, userID)
	if err != nil {
		log.Printf("[SentMessages] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list messages"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(msgs))
}
