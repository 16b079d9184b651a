package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/pawmate/backend/internal/middleware"
	"github.com/pawmate/backend/internal/models"
	"github.com/pawmate/backend/internal/services"
)

// fakeVerifier treats the bearer token itself as the UID.
type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(_ context.Context, token string) (string, string, error) {
	if token == "" || token == "invalid" {
		return "", "", errors.New("invalid token")
	}
	return token, token + "@test.local", nil
}

// fakeMedia is an in-memory media gateway with switchable failure modes.
type fakeMedia struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	failAll  bool
	failCert bool
}

func (m *fakeMedia) Upload(_ context.Context, folder, payload string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return "", services.ErrUploadFailed
	}
	if m.failCert && folder == "certificates" {
		return "", services.ErrUploadFailed
	}
	m.uploads++
	return fmt.Sprintf("https://media.test/%s/%d", folder, m.uploads), nil
}

func (m *fakeMedia) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, url)
	return nil
}

func (m *fakeMedia) uploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

type testEnv struct {
	router   *chi.Mux
	pets     *services.LocalPetService
	users    *services.LocalUserService
	products *services.LocalProductService
	settings *services.LocalSettingsService
	media    *fakeMedia
	screener *services.ImageScreener
	notifier *services.Notifier
}

// newTestEnv wires the full route tree against in-memory stores, mirroring
// cmd/server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pets, err := services.NewLocalPetService("")
	require.NoError(t, err)
	users, err := services.NewLocalUserService("")
	require.NoError(t, err)
	pets.SetUserService(users)
	products, err := services.NewLocalProductService("")
	require.NoError(t, err)
	settings, err := services.NewLocalSettingsService("")
	require.NoError(t, err)

	media := &fakeMedia{}
	screener := services.NewImageScreener(false, users)
	notifier := services.NewNotifier()

	env := &testEnv{
		pets:     pets,
		users:    users,
		products: products,
		settings: settings,
		media:    media,
		screener: screener,
		notifier: notifier,
	}

	isAdmin := func(ctx context.Context, uid string) (bool, error) {
		user, err := users.GetByUID(ctx, uid)
		if err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}

	petHandler := NewPetHandler(pets, media, screener, notifier)
	userHandler := NewUserHandler(users)
	messageHandler := NewMessageHandler(pets, notifier)
	productHandler := NewProductHandler(products, media, screener)
	adminHandler := NewAdminHandler(pets, users, products, media)
	maintenanceHandler := NewMaintenanceHandler(settings)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/maintenance", maintenanceHandler.Get)

		gate := appMiddleware.MaintenanceGate(settings.IsMaintenanceMode, isAdmin)

		r.Group(func(r chi.Router) {
			r.Use(gate)

			r.Get("/pet", petHandler.ListPets)
			r.Get("/pet/{petId}", petHandler.GetPet)
			r.Get("/pet/{petId}/events", petHandler.Events)
			r.Get("/pet/user/{uid}", petHandler.ListByUser)
			r.Get("/user/{uid}", userHandler.GetByUID)
			r.Get("/products", productHandler.ListProducts)
			r.Get("/products/{productId}", productHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Auth(fakeVerifier{}))
			r.Use(gate)

			r.Post("/pet", petHandler.CreatePet)
			r.Patch("/pet/{petId}", petHandler.PatchPet)
			r.Patch("/pet/{petId}/requests/{requestId}", petHandler.UpdateRequestStatus)
			r.Delete("/pet/{petId}", petHandler.DeletePet)

			r.Post("/user", userHandler.Register)

			r.Post("/message", messageHandler.Send)
			r.Get("/message", messageHandler.Sent)

			r.Post("/products", productHandler.CreateProduct)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.AdminOnly(isAdmin))

				r.Get("/admin", adminHandler.Dashboard)
				r.Patch("/admin", adminHandler.Action)
				r.Delete("/admin", adminHandler.Delete)
				r.Patch("/maintenance", maintenanceHandler.Update)
			})
		})
	})

	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) models.APIResponse {
	t.Helper()

	var raw struct {
		Success bool              `json:"success"`
		Data    json.RawMessage   `json:"data"`
		Error   string            `json:"error"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return models.APIResponse{Success: raw.Success, Error: raw.Error, Errors: raw.Errors}
}

// registerUser creates a profile for uid; the fake verifier accepts uid as
// its own token.
func (e *testEnv) registerUser(t *testing.T, uid, username string) *models.User {
	t.Helper()

	var user models.User
	rec := e.do(t, http.MethodPost, "/api/user", uid, models.CreateUserRequest{
		Name:     username,
		Username: username,
		Phone:    "555-0100",
		Location: &models.Location{Lat: 38.7, Lng: -9.1, City: "Lisbon"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeResponse(t, rec, &user)
	return &user
}

var testImagePayload = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

func validPetBody() map[string]interface{} {
	return map[string]interface{}{
		"name":              "Rex",
		"type":              "Dog",
		"breed":             "Labrador Retriever",
		"age":               3,
		"gender":            "Male",
		"certificateBase64": testImagePayload,
		"imagesBase64":      []string{testImagePayload},
	}
}

func (e *testEnv) createPet(t *testing.T, ownerUID string) *models.Pet {
	t.Helper()

	var pet models.Pet
	rec := e.do(t, http.MethodPost, "/api/pet", ownerUID, validPetBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	decodeResponse(t, rec, &pet)
	return &pet
}

func (e *testEnv) verifyPet(t *testing.T, petID string) {
	t.Helper()
	_, err := e.pets.SetVerification(context.Background(), petID, models.VerificationVerified)
	require.NoError(t, err)
}
