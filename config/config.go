// Package config provides configuration for the chat service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Completion provider
	OpenAIBaseURL string
	OpenAIAPIKey  string
	Model         string
	LLMTimeout    time.Duration

	// Chat turn sampling
	ChatMaxTokens   int
	ChatTemperature float64

	// Transcript analysis sampling
	AnalysisMaxTokens   int
	AnalysisTemperature float64

	// Conversation window
	MaxHistory int

	// Logging
	LogLevel    string
	Environment string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:            getEnvInt("HTTP_PORT", 3000),
		DatabaseURL:         getEnv("DATABASE_URL", "file:leadchat.db?cache=shared&mode=rwc"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		Model:               getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		LLMTimeout:          time.Duration(getEnvInt("LLM_TIMEOUT_MS", 30000)) * time.Millisecond,
		ChatMaxTokens:       getEnvInt("CHAT_MAX_TOKENS", 150),
		ChatTemperature:     getEnvFloat("CHAT_TEMPERATURE", 0.7),
		AnalysisMaxTokens:   getEnvInt("ANALYSIS_MAX_TOKENS", 500),
		AnalysisTemperature: getEnvFloat("ANALYSIS_TEMPERATURE", 0.1),
		MaxHistory:          getEnvInt("MAX_HISTORY", 10),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Environment:         getEnv("ENVIRONMENT", "development"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
