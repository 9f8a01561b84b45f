package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	FirebaseCredentials string
	GoogleProjectID     string
	GoogleCredentials   string

	AttentionEventsTopic string
	ExpirySweepInterval  time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	sweepInterval := 5 * time.Second
	if v := os.Getenv("EXPIRY_SWEEP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			sweepInterval = parsed
		}
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "famsync"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	return &Config{
		Port:                 getEnv("PORT", "8080"),
		DatabaseURL:          databaseURL,
		JWTSecret:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		FirebaseCredentials:  getEnv("FIREBASE_CREDENTIALS", ""),
		GoogleProjectID:      getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:    getEnv("GOOGLE_CREDENTIALS", ""),
		AttentionEventsTopic: getEnv("ATTENTION_EVENTS_TOPIC", ""),
		ExpirySweepInterval:  sweepInterval,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
