package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

// AdminHandler backs the moderation panel. All routes are mounted behind the
// admin middleware.
type AdminHandler struct {
	pets     services.PetStore
	users    services.UserStore
	products services.ProductStore
	media    services.MediaStore
}

func NewAdminHandler(pets services.PetStore, users services.UserStore, products services.ProductStore, media services.MediaStore) *AdminHandler {
	return &AdminHandler{
		pets:     pets,
		users:    users,
		products: products,
		media:    media,
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	pets, err := h.pets.ListAll(ctx)
	if err != nil {
		log.Printf("[AdminDashboard] Pets error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load dashboard"))
		return
	}
	users, err := h.users.ListAll(ctx)
	if err != nil {
		log.Printf("[AdminDashboard] Users error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load dashboard"))
		return
	}
	products, err := h.products.ListAll(ctx)
	if err != nil {
		log.Printf("[AdminDashboard] Products error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to load dashboard"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AdminDashboard{
		Pets:     pets,
		Users:    users,
		Products: products,
	}))
}

// Action dispatches moderation actions from the panel.
func (h *AdminHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req models.AdminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	switch req.Action {
	case "updatePetStatus":
		h.updatePetStatus(ctx, w, &req)
	case "banUser":
		h.setUserBan(ctx, w, &req)
	case "toggleAdminStatus":
		h.toggleAdmin(ctx, w, &req)
	default:
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse(fmt.Sprintf("Unknown action %q", req.Action)))
	}
}

func (h *AdminHandler) updatePetStatus(ctx context.Context, w http.ResponseWriter, req *models.AdminActionRequest) {
	if req.PetID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"petId": "Pet ID is required"}))
		return
	}
	// Verification is a one-way decision: once reviewed, a pet never goes
	// back to pending (which would also lift a rejection ban).
	switch req.Status {
	case models.VerificationVerified, models.VerificationRejected:
	default:
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"status": "Status must be verified or rejected"}))
		return
	}

	pet, err := h.pets.SetVerification(ctx, req.PetID, req.Status)
	if err != nil {
		if errors.Is(err, services.ErrPetNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
			return
		}
		log.Printf("[AdminAction] updatePetStatus error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update pet status"))
		return
	}

	log.Printf("[AdminAction] Pet %s -> %s (banned=%v)", pet.ID, pet.VerificationStatus, pet.IsBanned)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(pet))
}

// setUserBan bans by default; an explicit banned=false lifts the ban. A
// repeated ban is idempotent rather than a toggle.
func (h *AdminHandler) setUserBan(ctx context.Context, w http.ResponseWriter, req *models.AdminActionRequest) {
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"userId": "User ID is required"}))
		return
	}

	banned := true
	if req.Banned != nil {
		banned = *req.Banned
	}

	updated, err := h.users.SetBanned(ctx, req.UserID, banned)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("User not found"))
			return
		}
		log.Printf("[AdminAction] banUser error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update user"))
		return
	}

	log.Printf("[AdminAction] User %s banned=%v", updated.ID, updated.IsBanned)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(updated))
}

func (h *AdminHandler) toggleAdmin(ctx context.Context, w http.ResponseWriter, req *models.AdminActionRequest) {
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{"userId": "User ID is required"}))
		return
	}

	user, err := h.users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("User not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update user"))
		return
	}

	makeAdmin := !user.IsAdmin
	if req.MakeAdmin != nil {
		makeAdmin = *req.MakeAdmin
	}

	updated, err := h.users.SetAdmin(ctx, req.UserID, makeAdmin)
	if err != nil {
		log.Printf("[AdminAction] toggleAdminStatus error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update user"))
		return
	}

	log.Printf("[AdminAction] User %s admin=%v", updated.ID, updated.IsAdmin)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(updated))
}

// Delete removes a pet or product listing and cleans up its media best-effort.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PetID     string `json:"petId"`
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.PetID == "" && req.ProductID == "") {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("petId or productId is required"))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if req.PetID != "" {
		pet, err := h.pets.Delete(ctx, req.PetID)
		if err != nil {
			if errors.Is(err, services.ErrPetNotFound) {
				writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Pet not found"))
				return
			}
			log.Printf("[AdminAction] DeletePet error: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete pet"))
			return
		}

		h.cleanupMedia(append(pet.ImageURLs, pet.CertificateURL))
		log.Printf("[AdminAction] Pet deleted: %s", pet.ID)
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"deleted": pet.ID}))
		return
	}

	product, err := h.products.Delete(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
			return
		}
		log.Printf("[AdminAction] DeleteProduct error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to delete product"))
		return
	}

	h.cleanupMedia(product.Images)
	log.Printf("[AdminAction] Product deleted: %s", product.ID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"deleted": product.ID}))
}

func (h *AdminHandler) cleanupMedia(urls []string) {
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
