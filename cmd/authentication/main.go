// This is a **mock authentication service**, designed to provide JWT tokens
// for the outreach service, simulating user authentication.
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gartstein/outreach/internal/outreach/auth"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type settings struct {
	Port     string        `env:"AUTH_PORT" envDefault:"8081"`
	Secret   string        `env:"JWT_SECRET" envDefault:"jwt_secret"`
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
}

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

// tokenHandler generates a JWT and returns it in JSON response
func tokenHandler(cfg settings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		// Simulate a user ID for the token
		userID := "12345"

		token, err := auth.GenerateToken(userID, cfg.Secret, cfg.TokenTTL)
		if err != nil {
			logger.Error("Failed to generate token", zap.Error(err))
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
			logger.Error("Failed to encode token", zap.Error(err))
		}
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	var cfg settings
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("failed to parse environment", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(cfg, logger))

	logger.Info("Authentication service running", zap.String("port", cfg.Port))
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("authentication service stopped", zap.Error(err))
	}
}
