package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults,
// except the backend origin, which is deliberately default-free.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Backend API origin. Every request and the realtime channel are
	// built from this single value. No default: a portal silently
	// pointed at the wrong origin is worse than one that refuses to
	// start.
	BackendBaseURL string

	// Browser origins allowed by CORS.
	AllowedOrigins []string

	// HTTP client
	HTTPTimeout time.Duration

	// Payment verification
	VerifyTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Session persistence
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables.
// It returns an error when BACKEND_BASE_URL is missing so the caller
// can fail fast and visibly.
func Load() (*Config, error) {
	backendURL := os.Getenv("BACKEND_BASE_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL is not set: the portal cannot guess the backend origin")
	}

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendBaseURL: backendURL,
		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "http://localhost:5173")},

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		VerifyTimeout: getEnvDuration("VERIFY_TIMEOUT", 15*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
