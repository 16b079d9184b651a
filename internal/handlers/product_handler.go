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

type ProductHandler struct {
	products services.ProductStore
	media    services.MediaStore
	screener *services.ImageScreener
}

func NewProductHandler(products services.ProductStore, media services.MediaStore, screener *services.ImageScreener) *ProductHandler {
	return &ProductHandler{
		products: products,
		media:    media,
		screener: screener,
	}
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
		return
	}

	var req models.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		log.Printf("[CreateProduct] Validation errors: %v", errs)
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	ctx, cancel := contextWithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	imageURLs := make([]string, 0, len(req.Images))
	for i, payload := range req.Images {
		url, err := h.media.Upload(ctx, "products", payload)
		if err != nil {
			log.Printf("[CreateProduct] Image %d upload failed, skipping: %v", i, err)
			continue
		}
		imageURLs = append(imageURLs, url)
	}
	if len(imageURLs) == 0 {
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Failed to upload product images"))
		return
	}

	if err := h.screener.Screen(ctx, imageURLs, userID); err != nil {
		if errors.Is(err, services.ErrImageRejected) {
			writeJSON(w, http.StatusUnprocessableEntity, models.NewErrorResponse("One or more images violate community guidelines"))
			return
		}
		log.Printf("[CreateProduct] Screening error: %v", err)
		writeJSON(w, http.StatusBadGateway, models.NewErrorResponse("Image screening failed"))
		return
	}

	product, err := h.products.Create(ctx, userID, &req, imageURLs)
	if err != nil {
		log.Printf("[CreateProduct] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to create product"))
		return
	}

	log.Printf("[CreateProduct] Product created: %s (owner %s)", product.ID, userID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(product))
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	products, err := h.products.ListAll(ctx)
	if err != nil {
		log.Printf("[ListProducts] Store error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to list products"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(products))
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	ctx, cancel := contextWithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	product, err := h.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to get product"))
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(product))
}
