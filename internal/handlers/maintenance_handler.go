package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

type MaintenanceHandler struct {
	settings services.SettingsStore
}

func NewMaintenanceHandler(settings services.SettingsStore) *MaintenanceHandler {
	return &MaintenanceHandler{settings: settings}
}

// Get is public so the client can render the maintenance notice.
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	on, err := h.settings.IsMaintenanceMode(ctx)
	if err != nil {
		log.Printf("[Maintenance] Read error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to read settings"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.SystemSettings{
		ID:                models.SystemSettingsID,
		IsMaintenanceMode: on,
	}))
}

func (h *MaintenanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateMaintenanceRequest
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

	settings, err := h.settings.SetMaintenanceMode(ctx, *req.IsMaintenanceMode)
	if err != nil {
		log.Printf("[Maintenance] Update error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to update settings"))
		return
	}

	log.Printf("[Maintenance] Maintenance mode -> %v", settings.IsMaintenanceMode)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(settings))
}
