package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the runtime configuration for the API server
type Config struct {
	Port          string
	DatabasePath  string
	JWTSecret     string
	NATSURL       string // empty disables event publishing
	SweepInterval time.Duration
	Debug         bool
	Production    bool
}

// Load reads configuration from the environment, with an optional .env file
// for local development
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabasePath:  getEnv("DATABASE_PATH", "auction.db"),
		JWTSecret:     getEnv("JWT_SECRET", "auction-secret-key"),
		NATSURL:       os.Getenv("NATS_URL"),
		SweepInterval: time.Minute,
		Debug:         os.Getenv("DEBUG") == "true",
		Production:    os.Getenv("ENV") == "production",
	}

	if raw := os.Getenv("SWEEP_INTERVAL_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.SweepInterval = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
