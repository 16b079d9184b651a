package main

import (
	"context"
	"log"
	"time"

	"github.com/pawmate/backend/internal/config"
	"github.com/pawmate/backend/internal/services"
)

// The verify worker scans pending pets that have no certificate advisory yet,
// runs the analysis and stores the result for the admin dashboard. It never
// changes a pet's verification status; that stays a human decision.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("[worker] failed to load config: %v", err)
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("[worker] GEMINI_API_KEY is not set")
	}

	var pets services.PetStore
	if cfg.MongoURI != "" {
		store, err := services.NewMongoPetService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("[worker] mongo pet store init failed: %v", err)
		}
		defer store.Close(ctx)
		pets = store
		log.Printf("[worker] connected to MongoDB (db=%s)", cfg.MongoDB)
	} else {
		store, err := services.NewLocalPetService(cfg.DataDir)
		if err != nil {
			log.Fatalf("[worker] local pet store init failed: %v", err)
		}
		pets = store
		log.Printf("[worker] using local pet store under %s", cfg.DataDir)
	}

	analyzer := services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	log.Printf("[worker] scanning every %s", cfg.VerifyPollInterval)
	ticker := time.NewTicker(cfg.VerifyPollInterval)
	defer ticker.Stop()

	scan(ctx, pets, analyzer)
	for range ticker.C {
		scan(ctx, pets, analyzer)
	}
}

func scan(ctx context.Context, pets services.PetStore, analyzer services.CertificateAnalyzer) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	pending, err := pets.ListPendingWithoutAdvisory(ctx, 25)
	if err != nil {
		log.Printf("[worker] scan failed: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	log.Printf("[worker] %d pets awaiting certificate analysis", len(pending))

	for _, pet := range pending {
		advisory, err := analyzer.AnalyzeCertificate(ctx, pet.CertificateURL, pet.Name, pet.Type, pet.Breed, pet.Age)
		if err != nil {
			log.Printf("[worker] analysis failed pet=%s err=%v", pet.ID, err)
			continue
		}
		if err := pets.SetAdvisory(ctx, pet.ID, advisory); err != nil {
			log.Printf("[worker] store advisory failed pet=%s err=%v", pet.ID, err)
			continue
		}
		log.Printf("[worker] advisory stored pet=%s", pet.ID)
	}
}
