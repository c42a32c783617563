package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the recognition service
type Config struct {
	// Server configuration
	Port string

	// Grok configuration
	GrokAPIKey     string
	GrokModel      string
	RequestTimeout time.Duration

	// Recognition configuration
	DailyQuota         int
	RateLimitPerMinute int

	// Upload storage
	UploadDir     string
	PublicBaseURL string

	// Database configuration (recognition history, optional)
	DBEnabled  bool
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// RabbitMQ configuration (recognition events, optional).
	// An empty URL disables publishing.
	RabbitMQURL        string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Grok defaults
		GrokAPIKey:     getEnv("GROK_API_KEY", ""),
		GrokModel:      getEnv("GROK_MODEL", "grok-beta"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 60*time.Second),

		// Recognition defaults
		DailyQuota:         getIntEnv("DAILY_QUOTA", 5),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 20),

		// Upload defaults
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		// Database defaults
		DBEnabled:  getBoolEnv("DB_ENABLED", false),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "cinelens"),

		// RabbitMQ defaults
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "cinelens"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_ROUTING_KEY", "recognition.completed"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
