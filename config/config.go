package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Assistant (Gemini) configuration
	GeminiAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	GeminiTimeout  time.Duration
	AssistantReply string

	// Notification configuration
	SupportEmail string

	// Staff login (mock credential pair, compared in plaintext)
	StaffUsername string
	StaffPassword string

	// Advisory lock lifetime stamped into ExpiresAt. Nothing enforces it.
	LockTTL time.Duration

	// Login attempts allowed per client IP per minute.
	LoginRateLimit int

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "localhost:6379"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Assistant
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTimeout: getEnvAsDuration("GEMINI_TIMEOUT", "30s"),
		AssistantReply: getEnv("ASSISTANT_FALLBACK_REPLY",
			"Sorry, I'm having trouble connecting to my brain right now. Please try again later."),

		// Notifications
		SupportEmail: getEnv("SUPPORT_EMAIL", "support@livak.esam.com.ng"),

		// Staff login
		StaffUsername: getEnv("STAFF_USERNAME", "itstaff"),
		StaffPassword: getEnv("STAFF_PASSWORD", "password"),

		// Locking
		LockTTL: getEnvAsDuration("LOCK_TTL", "5m"),

		// Rate limiting
		LoginRateLimit: getEnvAsInt("LOGIN_RATE_LIMIT", 20),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
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
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
