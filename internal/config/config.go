package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS,default=:8080"`

	// Document store. When MongoURI is empty the server falls back to the
	// JSON-file-backed in-memory stores under DataDir.
	MongoURI string `env:"MONGODB_URI"`
	MongoDB  string `env:"MONGODB_DB,default=pawmate"`
	DataDir  string `env:"DATA_DIR,default=./data"`

	// Identity provider. With a Firebase project configured, bearer tokens are
	// verified as Firebase ID tokens; otherwise the local HS256 auth routes
	// are mounted instead.
	FirebaseProjectID       string        `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsJSON string        `env:"FIREBASE_CREDENTIALS_JSON"`
	JWTSecret               string        `env:"JWT_SECRET,default=your-secret-key-change-in-production"`
	JWTExpiration           time.Duration `env:"JWT_EXPIRATION,default=24h"`

	// Media gateway. MediaBucket selects the GCS gateway; MediaAPIKey the
	// hosted HTTP gateway; neither selects the local-disk gateway.
	MediaBucket     string `env:"MEDIA_BUCKET"`
	MediaAPIKey     string `env:"MEDIA_API_KEY"`
	UploadDir       string `env:"UPLOAD_DIR,default=./uploads"`
	MaxUploadSizeMB int64  `env:"MAX_UPLOAD_MB,default=10"`

	// Generative model used for certificate analysis and the pet-care chat.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-2.0-flash"`

	// Vision SafeSearch screening of uploaded images.
	SafeSearchEnabled bool `env:"SAFESEARCH_ENABLED,default=false"`

	// cmd/verify-worker scan interval.
	VerifyPollInterval time.Duration `env:"VERIFY_POLL_INTERVAL,default=5m"`
}

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return cfg, nil
}
