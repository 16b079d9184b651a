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

// CertificateHandler runs the on-demand advisory analysis of a vet
// certificate. The result informs admins; it never changes a pet's status.
type CertificateHandler struct {
	analyzer services.CertificateAnalyzer
}

func NewCertificateHandler(analyzer services.CertificateAnalyzer) *CertificateHandler {
	return &CertificateHandler{analyzer: analyzer}
}

type verifyCertificateRequest struct {
	CertificateURL string `json:"certificateUrl"`
	PetName        string `json:"petName"`
	PetType        string `json:"petType"`
	PetAge         int    `json:"petAge"`
	PetBreed       string `json:"petBreed"`
}

func (r *verifyCertificateRequest) validate() map[string]string {
	errs := make(map[string]string)
	if r.CertificateURL == "" {
		errs["certificateUrl"] = "Certificate URL is required"
	}
	if r.PetName == "" {
		errs["petName"] = "Pet name is required"
	}
	return errs
}

func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req verifyCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	analysis, err := h.analyzer.AnalyzeCertificate(ctx, req.CertificateURL, req.PetName, req.PetType, req.PetBreed, req.PetAge)
	if err != nil {
		log.Printf("[VerifyCertificate] Analyzer error: %v", err)
		if errors.Is(err, services.ErrAssistantUnavailable) {
			writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Certificate analysis is temporarily unavailable"))
			return
		}
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to analyze certificate"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"analysis": analysis}))
}
