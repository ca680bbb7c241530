package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BrainBaseURL string
	AuthToken    string
	Environment  string

	// brainstub only
	ServerPort string
	JWTSecret  string
	JWTExpiry  int64

	// Send flow. Retry delay after the nth failure is n * RetryBaseDelay.
	MaxMessageLength  int
	MaxSendAttempts   int
	RetryBaseDelay    time.Duration
	MaxAttachmentSize int64

	// Typing indicator
	TypingIdleWindow time.Duration
	TypingThrottle   time.Duration

	// Polling readers
	MessagePollInterval time.Duration
	TypingPollInterval  time.Duration

	// Feature access
	FeatureCacheTTL time.Duration

	PageSize int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		BrainBaseURL: getEnv("BRAIN_BASE_URL", "http://localhost:8080"),
		AuthToken:    getEnv("BRAIN_AUTH_TOKEN", ""),
		Environment:  getEnv("ENVIRONMENT", "development"),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:  getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours

		MaxMessageLength:  getEnvAsInt("MAX_MESSAGE_LENGTH", 2000),
		MaxSendAttempts:   getEnvAsInt("MAX_SEND_ATTEMPTS", 3),
		RetryBaseDelay:    getEnvAsDuration("RETRY_BASE_DELAY", time.Second),
		MaxAttachmentSize: getEnvAsInt64("MAX_ATTACHMENT_SIZE", 10*1024*1024), // 10MB

		TypingIdleWindow: getEnvAsDuration("TYPING_IDLE_WINDOW", 2*time.Second),
		TypingThrottle:   getEnvAsDuration("TYPING_THROTTLE", time.Second),

		MessagePollInterval: getEnvAsDuration("MESSAGE_POLL_INTERVAL", 3*time.Second),
		TypingPollInterval:  getEnvAsDuration("TYPING_POLL_INTERVAL", 2*time.Second),

		FeatureCacheTTL: getEnvAsDuration("FEATURE_CACHE_TTL", 5*time.Minute),

		PageSize: getEnvAsInt("PAGE_SIZE", 20),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
