package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	HTTPAddr     string

	BookingAPIBaseURL     string
	BookingAPITimeout     time.Duration
	BookingAPIMaxAttempts int
	BookingSource         string

	SessionSecret string
	SessionTTL    time.Duration

	// DBDSN is optional; without it confirmations are kept in memory.
	DBDSN       string
	StoragePath string
	AppURL      string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	var err error
	cfg := &Config{}

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING

	// Comma separated production origins (default: none)
	cfg.ProdOrigins = splitList(getEnv("PROD_ORIGINS", ""))

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Booking service base URL is required
	cfg.BookingAPIBaseURL = strings.TrimRight(os.Getenv("BOOKING_API_BASE_URL"), "/")
	if cfg.BookingAPIBaseURL == "" {
		return nil, fmt.Errorf("BOOKING_API_BASE_URL is required")
	}

	cfg.BookingAPITimeout, err = getEnvAsDuration("BOOKING_API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_API_TIMEOUT: %w", err)
	}

	cfg.BookingAPIMaxAttempts, err = getEnvAsInt("BOOKING_API_MAX_ATTEMPTS", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOKING_API_MAX_ATTEMPTS: %w", err)
	}
	if cfg.BookingAPIMaxAttempts < 1 {
		return nil, fmt.Errorf("BOOKING_API_MAX_ATTEMPTS must be at least 1")
	}

	cfg.BookingSource = getEnv("BOOKING_SOURCE", "WEBSITE")

	// Session secret is required for signing session tokens
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	// Session idle TTL, parse as time.Duration (e.g. "30m", "1h").
	cfg.SessionTTL, err = getEnvAsDuration("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	cfg.DBDSN = os.Getenv("DB_DSN")
	cfg.StoragePath = getEnv("STORAGE_PATH", "./data")
	cfg.AppURL = getEnv("APP_URL", "http://localhost:3000")

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("env %s must be positive, got %s", key, valStr)
	}

	return val, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
