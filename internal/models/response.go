package models

// APIResponse is a generic API response wrapper
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   message,
	}
}

// NewValidationErrorResponse creates a validation error response
func NewValidationErrorResponse(errors map[string]string) APIResponse {
	return APIResponse{
		Success: false,
		Error:   "Validation failed",
		Errors:  errors,
	}
}

// AdminDashboard aggregates everything the moderation panel renders.
type AdminDashboard struct {
	Pets     []Pet     `json:"pets"`
	Users    []User    `json:"users"`
	Products []Product `json:"products"`
}

// AdminActionRequest drives PATCH /api/admin. Action is one of
// "updatePetStatus", "banUser" or "toggleAdminStatus".
type AdminActionRequest struct {
	Action    string `json:"action"`
	PetID     string `json:"petId"`
	Status    string `json:"status"`
	UserID    string `json:"userId"`
	Banned    *bool  `json:"banned"`
	MakeAdmin *bool  `json:"makeAdmin"`
}

// MediaUploadResult is what the media gateway hands back for one payload.
type MediaUploadResult struct {
	URL string `json:"url"`
}
