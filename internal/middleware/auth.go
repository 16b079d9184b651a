package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"github.com/pawmate/backend/internal/models"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

// TokenVerifier abstracts the identity provider so handlers never depend on
// the Firebase SDK directly.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (uid, email string, err error)
}

type FirebaseAuthConfig struct {
	ProjectID       string
	CredentialsJSON string
}

type firebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseAuthClient initializes the Firebase Admin SDK and returns a
// verifier for ID tokens minted by the web client.
func NewFirebaseAuthClient(ctx context.Context, cfg FirebaseAuthConfig) (TokenVerifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &firebaseVerifier{client: client}, nil
}

func (v *firebaseVerifier) VerifyToken(ctx context.Context, idToken string) (string, string, error) {
	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", "", err
	}
	email, _ := tok.Claims["email"].(string)
	return tok.UID, email, nil
}

// Auth validates Bearer tokens with the given verifier and stashes the
// caller's UID and email in the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			uid, email, err := verifier.VerifyToken(r.Context(), tokenString)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, uid)
			ctx = context.WithValue(ctx, UserEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// JWTVerifier validates the HS256 tokens issued by the local auth routes.
type JWTVerifier struct {
	Secret string
}

func (v *JWTVerifier) VerifyToken(_ context.Context, tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(v.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	uid, ok := claims["user_id"].(string)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	email, _ := claims["email"].(string)
	return uid, email, nil
}

// AdminOnly rejects callers whose profile is not flagged as admin. isAdmin
// looks the caller up in the user store.
func AdminOnly(isAdmin func(ctx context.Context, uid string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := GetUserID(r.Context())
			if uid == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authentication required"))
				return
			}
			ok, err := isAdmin(r.Context(), uid)
			if err != nil || !ok {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaintenanceGate returns 503 for non-admin traffic while maintenance mode is
// on. The maintenance endpoints themselves stay reachable so the site can be
// toggled back.
func MaintenanceGate(inMaintenance func(ctx context.Context) (bool, error), isAdmin func(ctx context.Context, uid string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/maintenance") {
				next.ServeHTTP(w, r)
				return
			}

			on, err := inMaintenance(r.Context())
			if err != nil || !on {
				next.ServeHTTP(w, r)
				return
			}

			if uid := GetUserID(r.Context()); uid != "" {
				if ok, err := isAdmin(r.Context(), uid); err == nil && ok {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusServiceUnavailable, models.NewErrorResponse("The site is down for maintenance"))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts the authenticated user's ID from context.
func GetUserID(ctx context.Context) string {
	uid, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return uid
}

// GetUserEmail extracts the authenticated user's email from context.
func GetUserEmail(ctx context.Context) string {
	email, ok := ctx.Value(UserEmailKey).(string)
	if !ok {
		return ""
	}
	return email
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
