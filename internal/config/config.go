package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Platform credentials
	Token         string
	WebhookSecret string
	APIBaseURL    string
	APITimeout    time.Duration

	// Dispatch behavior
	IgnoreSelf           bool
	IgnoreBots           bool
	OnlyFirstMatch       bool
	PreloadOrganizations bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Token:                getEnv("BOT_TOKEN", ""),
		WebhookSecret:        getEnv("BOT_WEBHOOK_SECRET", ""),
		APIBaseURL:           getEnv("PLATFORM_API_URL", ""),
		APITimeout:           getEnvAsDuration("PLATFORM_API_TIMEOUT", 10*time.Second),
		IgnoreSelf:           getEnvAsBool("BOT_IGNORE_SELF", true),
		IgnoreBots:           getEnvAsBool("BOT_IGNORE_BOTS", true),
		OnlyFirstMatch:       getEnvAsBool("BOT_ONLY_FIRST_MATCH", false),
		PreloadOrganizations: getEnvAsBool("BOT_PRELOAD_ORGANIZATIONS", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
