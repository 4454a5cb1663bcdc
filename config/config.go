package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const DefaultAPIBaseURL = "http://127.0.0.1:8000/api/"

type Config struct {
	// Server configuration
	Port        string
	Environment string
	LogLevel    string

	// Backend REST API
	APIBaseURL string
	APITimeout time.Duration

	// Service account used by ticketctl when no session token is given
	ServiceEmail    string
	ServicePassword string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Sessions
	SessionTTL     time.Duration
	LoginRateLimit int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	AdminChannel       string

	// Circuit breaker around backend calls
	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64

	// Event poster uploads
	MaxImageSizeMB int
	MaxEventImages int

	// Monitoring
	EnableMetrics bool
}

// LoadConfig reads .env.local and .env when present, then the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Backend
		APIBaseURL: getEnv("API_BASE_URL", DefaultAPIBaseURL),
		APITimeout: getEnvAsDuration("API_TIMEOUT", "10s"),

		ServiceEmail:    getEnv("SERVICE_EMAIL", ""),
		ServicePassword: getEnv("SERVICE_PASSWORD", ""),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Sessions
		SessionTTL:     getEnvAsDuration("SESSION_TTL", "12h"),
		LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 10),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		AdminChannel:       getEnv("ADMIN_CHANNEL", "admin-ticket-changes"),

		// Circuit breaker
		BreakerMaxRequests:  uint32(getEnvAsInt("BREAKER_MAX_REQUESTS", 20)),
		BreakerInterval:     getEnvAsDuration("BREAKER_INTERVAL", "60s"),
		BreakerTimeout:      getEnvAsDuration("BREAKER_TIMEOUT", "30s"),
		BreakerFailureRatio: getEnvAsFloat("BREAKER_FAILURE_RATIO", 0.6),

		// Uploads
		MaxImageSizeMB: getEnvAsInt("MAX_IMAGE_SIZE_MB", 5),
		MaxEventImages: getEnvAsInt("MAX_EVENT_IMAGES", 10),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// fall back to the default when the variable is malformed
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
