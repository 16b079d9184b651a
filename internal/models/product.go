package models

import (
	"time"
)

type Product struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Images      []string  `json:"images"`
	OwnerID     string    `json:"ownerId"`
	OwnerName   string    `json:"ownerName"`
	Contact     string    `json:"contact"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"` // base64 payloads, uploaded before persisting
	OwnerName   string   `json:"ownerName"`
	Contact     string   `json:"contact"`
	Category    string   `json:"category"`
}

func (r *CreateProductRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Product name is required"
	}
	if r.Description == "" {
		errors["description"] = "Description is required"
	}
	if r.Price <= 0 {
		errors["price"] = "Price must be a positive number"
	}
	if len(r.Images) == 0 {
		errors["images"] = "At least one image is required"
	}
	if r.Category == "" {
		errors["category"] = "Category is required"
	}

	return errors
}

// Common product categories
var ProductCategories = []string{
	"Food",
	"Toys",
	"Accessories",
	"Grooming",
	"Health",
	"Bedding",
	"Other",
}
