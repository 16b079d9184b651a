package models

import (
	"time"
)

// Location is an optional geographic coordinate plus the derived city name
// used by the city filter on pet listings.
type Location struct {
	Lat  float64 `json:"lat" bson:"lat"`
	Lng  float64 `json:"lng" bson:"lng"`
	City string  `json:"city,omitempty" bson:"city,omitempty"`
}

type User struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Phone       string    `json:"phone"`
	FirebaseUID string    `json:"firebaseUid"`
	Location    *Location `json:"location,omitempty"`
	IsAdmin     bool      `json:"isAdmin"`
	IsBanned    bool      `json:"isBanned"`
	Strikes     int       `json:"strikes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateUserRequest struct {
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Phone       string    `json:"phone"`
	FirebaseUID string    `json:"firebaseUid"`
	Location    *Location `json:"location"`
}

func (r *CreateUserRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Username == "" {
		errors["username"] = "Username is required"
	}
	if r.Phone == "" {
		errors["phone"] = "Phone is required"
	}
	if r.FirebaseUID == "" {
		errors["firebaseUid"] = "User identity is required"
	}

	return errors
}
