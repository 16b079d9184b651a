package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawmate/backend/internal/middleware"
	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

type PetHandler struct {
	pets     services.PetStore
	media    services.MediaStore
	screener *services.ImageScreener
	notifier *services.Notifier
}

func NewPetHandler(pets services.PetStore, media services.MediaStore, screener *services.ImageScreener, notifier *services.Notifier) *PetHandler {
	return &PetHandler{
		pets:     pets,
		media:    media,
		screener: screener,
		notifier: notifier,
	}
}

// CreatePet validates first, uploads media second, persists last. A failed
// certificate upload or zero surviving images abort before anything is saved.
func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		log.Println("[CreatePet] Unauthorized - no user ID in context")
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.CreatePetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		log.Printf("[CreatePet] Validation errors: %v", errs)
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	certURL, err := h.media.Upload(ctx, "certificates", req.CertificateBase64)
	if err != nil {
		log.Printf("[CreatePet] Certificate upload failed: %v", err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to upload certificate"))
		return
	}

	imageURLs := make([]string, 0, len(req.ImagesBase64))
	for i, payload := range req.ImagesBase64 {
		url, err := h.media.Upload(ctx, "pets", payload)
		if err != nil {
			log.Printf("[CreatePet] Image %d upload failed, skipping: %v", i, err)
			continue
		}
		imageURLs = append(imageURLs, url)
	}
	if len(imageURLs) == 0 {
		log.Println("[CreatePet] All image uploads failed")
		h.cleanupMedia([]string{certURL})
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to upload pet images"))
		return
	}

	if err := h.screener.Screen(ctx, imageURLs, userID); err != nil {
		h.cleanupMedia(append(imageURLs, certURL))
		if errors.Is(err, services.ErrImageRejected) {
			writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse("One or more images violate community guidelines"))
			return
		}
		log.Printf("[CreatePet] Screening error: %v", err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Image screening failed"))
		return
	}

	pet, err := h.pets.Create(ctx, &services.NewPet{
		Name:           req.Name,
		Type:           req.Type,
		Breed:          req.Breed,
		Age:            *req.Age,
		Gender:         req.Gender,
		OwnerID:        userID,
		CertificateURL: certURL,
		ImageURLs:      imageURLs,
	})
	if err != nil {
		log.Printf("[CreatePet] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create pet"))
		return
	}

	log.Printf("[CreatePet] Pet created: %s (owner %s)", pet.ID, userID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(pet))
}

func (h *PetHandler) ListPets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &models.PetFilter{
		Type:           q.Get("type"),
		Breed:          q.Get("breed"),
		City:           q.Get("city"),
		ExcludeOwnerID: q.Get("excludeOwnerId"),
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pets, err := h.pets.List(ctx, filter)
	if err != nil {
		log.Printf("[ListPets] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list pets"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(pets))
}

func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petId")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pet, err := h.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, services.ErrPetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to get pet"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(pet))
}

// PatchPet dispatches on the action field: matingRequest appends a proposal,
// addMessage appends a chat entry.
func (h *PetHandler) PatchPet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	petID := chi.URLParam(r, "petId")

	var req models.PetActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch req.Action {
	case "matingRequest":
		mr, err := h.pets.AddMatingRequest(ctx, &services.NewMatingRequest{
			PetID:            petID,
			RequesterID:      userID,
			RequesterName:    req.RequesterName,
			RequesterPetID:   req.RequesterPetID,
			RequesterPetName: req.RequesterPetName,
			Note:             req.MessageText,
		})
		if err != nil {
			h.writeMatingRequestError(w, err)
			return
		}
		log.Printf("[PatchPet] Mating request %s on pet %s by %s", mr.ID, petID, userID)
		h.notifier.Publish(petID, models.Message{
			PetID:      petID,
			SenderID:   userID,
			SenderName: req.RequesterName,
			Text:       "New mating request from " + req.RequesterName,
			SentAt:     mr.RequestedAt,
		})
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(mr))

	case "addMessage":
		if req.MessageText == "" {
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"messageText": "Message text is required"}))
			return
		}
		msg, err := h.pets.AddMessage(ctx, petID, userID, req.RequesterName, req.MessageText)
		if err != nil {
			if errors.Is(err, services.ErrPetNotFound) {
				writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
				return
			}
			log.Printf("[PatchPet] AddMessage error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to add message"))
			return
		}
		h.notifier.Publish(petID, *msg)
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(msg))

	default:
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(fmt.Sprintf("Unknown action %q", req.Action)))
	}
}

func (h *PetHandler) writeMatingRequestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPetNotFound):
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
	case errors.Is(err, services.ErrPetNotVerified):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("Pet is not verified for mating requests"))
	case errors.Is(err, services.ErrPetBanned):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("Pet is not available"))
	case errors.Is(err, services.ErrSelfRequest):
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Cannot send a mating request to your own pet"))
	case errors.Is(err, services.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, models.NewErrorResponse("A pending request from you already exists"))
	default:
		log.Printf("[PatchPet] Mating request error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to submit mating request"))
	}
}

// UpdateRequestStatus lets the pet owner settle a pending mating request.
func (h *PetHandler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	petID := chi.URLParam(r, "petId")
	requestID := chi.URLParam(r, "requestId")

	var req models.UpdateRequestStatusRequest
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

	mr, err := h.pets.SetRequestStatus(ctx, petID, requestID, userID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPetNotFound):
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
		case errors.Is(err, services.ErrRequestNotFound):
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Request not found"))
		case errors.Is(err, services.ErrUnauthorized):
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Only the pet owner can settle requests"))
		case errors.Is(err, services.ErrRequestSettled):
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Request has already been settled"))
		default:
			log.Printf("[UpdateRequestStatus] Store error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update request"))
		}
		return
	}

	log.Printf("[UpdateRequestStatus] Request %s on pet %s -> %s", requestID, petID, req.Status)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(mr))
}

// DeletePet removes the document first, then cleans up media best-effort.
func (h *PetHandler) DeletePet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}
	petID := chi.URLParam(r, "petId")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pet, err := h.pets.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, services.ErrPetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete pet"))
		return
	}
	if pet.OwnerID != userID {
		writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Not authorized to delete this pet"))
		return
	}

	deleted, err := h.pets.Delete(ctx, petID)
	if err != nil {
		if errors.Is(err, services.ErrPetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
			return
		}
		log.Printf("[DeletePet] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete pet"))
		return
	}

	h.cleanupMedia(append(deleted.ImageURLs, deleted.CertificateURL))

	log.Printf("[DeletePet] Pet deleted: %s", petID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"deleted": petID}))
}

func (h *PetHandler) cleanupMedia(urls []string) {
	// Detached from the request: cleanup must not block or fail the response.
	go func() {
		ctx, cancel := contextWithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		for _, u := range urls {
			if u == "" {
				continue
			}
			if err := h.media.Delete(ctx, u); err != nil {
				log.Printf("[media] cleanup failed url=%s err=%v", u, err)
			}
		}
	}()
}

func (h *PetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pets, err := h.pets.ListByOwner(ctx, uid)
	if err != nil {
		log.Printf("[ListByUser] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list pets"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(pets))
}

// Events streams new messages for a pet over SSE until the client hangs up.
func (h *PetHandler) Events(w http.ResponseWriter, r *http.Request) {
	petID := chi.URLParam(r, "petId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Streaming unsupported"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	if _, err := h.pets.GetByID(ctx, petID); err != nil {
		cancel()
		if errors.Is(err, services.ErrPetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to open event stream"))
		return
	}
	cancel()

	events, unsubscribe := h.notifier.Subscribe(petID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
