package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pawmate/backend/internal/middleware"
	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

type UserHandler struct {
	users services.UserStore
}

func NewUserHandler(users services.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// Register creates the profile document for an authenticated identity. The
// UID always comes from the token, never from the body.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	uid := middleware.GetUserID(r.Context())
	if uid == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	req.FirebaseUID = uid

	if errs := req.Validate(); len(errs) > 0 {
		log.Printf("[RegisterUser] Validation errors: %v", errs)
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) {
			writeJSON(w, http.StatusConflict, models.NewErrorResponse("Username already exists"))
			return
		}
		log.Printf("[RegisterUser] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create user"))
		return
	}

	log.Printf("[RegisterUser] User created: %s (%s)", user.Username, user.ID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(user))
}

func (h *UserHandler) GetByUID(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := h.users.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("User not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to get user"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(user))
}
