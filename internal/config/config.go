package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port string

	// Telegram bot configuration
	BotToken    string
	PollTimeout int // seconds, long-polling timeout for getUpdates

	// Translator configuration (OpenAI-compatible endpoint)
	TranslatorBaseURL string
	TranslatorAPIKey  string
	TranslatorModel   string
	TranslatorTimeout time.Duration

	// Language detection configuration
	ConfidenceThreshold float64

	// Correlation store configuration
	CacheMaxSize    int
	CacheTTL        time.Duration
	RetentionWindow time.Duration
	SweepInterval   time.Duration

	// Storage
	DatabasePath string
	MongoURI     string // optional - analytics mirror disabled when empty
	RedisURL     string // optional - event fanout disabled when empty
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "3001"),

		BotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		PollTimeout: getIntEnv("TELEGRAM_POLL_TIMEOUT", 30),

		TranslatorBaseURL: getEnv("TRANSLATOR_BASE_URL", "https://api.groq.com/openai/v1"),
		TranslatorAPIKey:  getEnv("TRANSLATOR_API_KEY", ""),
		TranslatorModel:   getEnv("TRANSLATOR_MODEL", "llama-3.3-70b-versatile"),
		TranslatorTimeout: getDurationEnv("TRANSLATOR_TIMEOUT", 30*time.Second),

		ConfidenceThreshold: getFloatEnv("LANG_CONFIDENCE_THRESHOLD", 0.75),

		CacheMaxSize:    getIntEnv("CACHE_MAX_SIZE", 100),
		CacheTTL:        getDurationEnv("CACHE_EXPIRATION", 30*time.Minute),
		RetentionWindow: getDurationEnv("DB_RETENTION", 7*24*time.Hour),
		SweepInterval:   getDurationEnv("SWEEP_INTERVAL", 10*time.Minute),

		DatabasePath: getEnv("DATABASE_PATH", "data/relay.db"),
		MongoURI:     getEnv("MONGODB_URI", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
