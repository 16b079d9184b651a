package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pawmate/backend/internal/config"
	"github.com/pawmate/backend/internal/handlers"
	appMiddleware "github.com/pawmate/backend/internal/middleware"
	"github.com/pawmate/backend/internal/services"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Document store: MongoDB when configured, JSON-file-backed otherwise.
	var (
		petStore      services.PetStore
		userStore     services.UserStore
		productStore  services.ProductStore
		settingsStore services.SettingsStore
	)
	if cfg.MongoURI != "" {
		pets, err := services.NewMongoPetService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect pet store: %v", err)
		}
		users, err := services.NewMongoUserService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect user store: %v", err)
		}
		products, err := services.NewMongoProductService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect product store: %v", err)
		}
		settings, err := services.NewMongoSettingsService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("Failed to connect settings store: %v", err)
		}
		petStore, userStore, productStore, settingsStore = pets, users, products, settings
		log.Printf("Using MongoDB document store (db %s)", cfg.MongoDB)
	} else {
		pets, err := services.NewLocalPetService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open pet store: %v", err)
		}
		users, err := services.NewLocalUserService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open user store: %v", err)
		}
		pets.SetUserService(users)
		products, err := services.NewLocalProductService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open product store: %v", err)
		}
		settings, err := services.NewLocalSettingsService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open settings store: %v", err)
		}
		petStore, userStore, productStore, settingsStore = pets, users, products, settings
		log.Printf("Using local document store under %s", cfg.DataDir)
	}

	// Media gateway: GCS bucket > hosted HTTP gateway > local disk.
	var mediaStore services.MediaStore
	switch {
	case cfg.MediaBucket != "":
		gcs, err := services.NewGCSMediaStore(ctx, cfg.MediaBucket)
		if err != nil {
			log.Fatalf("Failed to init GCS media store: %v", err)
		}
		mediaStore = gcs
		log.Printf("Using GCS media store (bucket %s)", cfg.MediaBucket)
	case cfg.MediaAPIKey != "":
		mediaStore = services.NewHTTPMediaStore(cfg.MediaAPIKey)
		log.Println("Using hosted HTTP media store")
	default:
		mediaStore = services.NewLocalMediaStore(cfg.UploadDir)
		log.Printf("Using local media store under %s", cfg.UploadDir)
	}

	screener := services.NewImageScreener(cfg.SafeSearchEnabled, userStore)
	notifier := services.NewNotifier()
	gemini := services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	// Identity provider: Firebase ID tokens, or local HS256 JWTs in dev mode.
	var verifier appMiddleware.TokenVerifier
	var authHandler *handlers.AuthHandler
	if cfg.FirebaseProjectID != "" {
		fb, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
			ProjectID:       cfg.FirebaseProjectID,
			CredentialsJSON: cfg.FirebaseCredentialsJSON,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		verifier = fb
		log.Printf("Using Firebase auth (project %s)", cfg.FirebaseProjectID)
	} else {
		accounts, err := services.NewAccountService(cfg.DataDir)
		if err != nil {
			log.Fatalf("Failed to open account store: %v", err)
		}
		verifier = &appMiddleware.JWTVerifier{Secret: cfg.JWTSecret}
		authHandler = handlers.NewAuthHandler(accounts, cfg.JWTSecret, cfg.JWTExpiration)
		log.Println("Using local JWT auth (no Firebase project configured)")
	}

	isAdmin := func(ctx context.Context, uid string) (bool, error) {
		user, err := userStore.GetByUID(ctx, uid)
		if err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}

	petHandler := handlers.NewPetHandler(petStore, mediaStore, screener, notifier)
	userHandler := handlers.NewUserHandler(userStore)
	messageHandler := handlers.NewMessageHandler(petStore, notifier)
	productHandler := handlers.NewProductHandler(productStore, mediaStore, screener)
	adminHandler := handlers.NewAdminHandler(petStore, userStore, productStore, mediaStore)
	maintenanceHandler := handlers.NewMaintenanceHandler(settingsStore)
	certificateHandler := handlers.NewCertificateHandler(gemini)
	assistantHandler := handlers.NewAssistantHandler(gemini, petStore)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/maintenance", maintenanceHandler.Get)
		if authHandler != nil {
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		}

		gate := appMiddleware.MaintenanceGate(settingsStore.IsMaintenanceMode, isAdmin)

		// Read-only browse routes
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

		// Authenticated routes. The gate runs after Auth so admin callers
		// keep access while maintenance mode is on.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.Auth(verifier))
			r.Use(gate)

			r.Post("/pet", petHandler.CreatePet)
			r.Patch("/pet/{petId}", petHandler.PatchPet)
			r.Patch("/pet/{petId}/requests/{requestId}", petHandler.UpdateRequestStatus)
			r.Delete("/pet/{petId}", petHandler.DeletePet)

			r.Post("/user", userHandler.Register)

			r.Post("/message", messageHandler.Send)
			r.Get("/message", messageHandler.Sent)

			r.Post("/products", productHandler.CreateProduct)

			r.Post("/verify-certificate", certificateHandler.Verify)
			r.Post("/assistant", assistantHandler.Chat)

			if authHandler != nil {
				r.Get("/auth/me", authHandler.GetProfile)
			}

			// Admin panel
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.AdminOnly(isAdmin))

				r.Get("/admin", adminHandler.Dashboard)
				r.Patch("/admin", adminHandler.Action)
				r.Delete("/admin", adminHandler.Delete)
				r.Patch("/maintenance", maintenanceHandler.Update)
			})
		})
	})

	// Serve locally stored media when no external gateway is configured.
	if cfg.MediaBucket == "" && cfg.MediaAPIKey == "" {
		workDir, _ := os.Getwd()
		filesDir := http.Dir(workDir + "/" + cfg.UploadDir)
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesDir)))
	}

	log.Printf("PawMate API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
