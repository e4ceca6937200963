/**
 * Configuration for the RxMind backend
 *
 * Loads configuration from environment variables (optionally seeded from .env).
 * GEMINI_API_KEY is the only required setting; without it the process must
 * not start.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/rxmind/rxmind-backend/internal/errors"
)

const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultMaxUploadSize  = 10 * 1024 * 1024 // 10MB
	DefaultMaxImagePixels = 40_000_000       // 40MP
)

// Config holds service configuration
type Config struct {
	// LLM configuration
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	// HTTP configuration
	Port               int
	MaxUploadSize      int64
	MaxImagePixels     int64
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	// Tesseract configuration
	TesseractLanguage string
	TessdataPrefix    string

	// Optional outcome sinks, disabled when empty
	RedisURL    string
	DatabaseURL string

	LogLevel string
	AppEnv   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, apperrors.NewConfigurationError("GEMINI_API_KEY not found in environment")
	}

	cfg := &Config{
		GeminiAPIKey:       apiKey,
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		LLMTimeout:         getEnvAsDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		Port:               getEnvAsIntOrDefault("PORT", 8000),
		MaxUploadSize:      getEnvAsInt64OrDefault("MAX_UPLOAD_SIZE", DefaultMaxUploadSize),
		MaxImagePixels:     getEnvAsInt64OrDefault("MAX_IMAGE_PIXELS", DefaultMaxImagePixels),
		CORSAllowedOrigins: getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout:    getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", 15*time.Second),
		TesseractLanguage:  getEnvOrDefault("TESSERACT_LANGUAGE", "eng"),
		TessdataPrefix:     getEnvOrDefault("TESSDATA_PREFIX", ""),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		AppEnv:             getEnvOrDefault("APP_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("configuration validation failed: %v", err))
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	if c.GeminiModel == "" {
		return fmt.Errorf("GEMINI_MODEL must not be empty")
	}

	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %v", c.LLMTimeout)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	if c.MaxUploadSize < 1024 || c.MaxUploadSize > 104857600 { // 1KB to 100MB
		return fmt.Errorf("MAX_UPLOAD_SIZE must be between 1KB and 100MB, got %d", c.MaxUploadSize)
	}

	if c.MaxImagePixels < 1 || c.MaxImagePixels > 500_000_000 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be between 1 and 500000000, got %d", c.MaxImagePixels)
	}

	if c.TesseractLanguage == "" {
		return fmt.Errorf("TESSERACT_LANGUAGE must not be empty")
	}

	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	return nil
}

// IsProduction reports whether the service runs with production defaults
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TesseractLanguages splits TESSERACT_LANGUAGE ("eng+deu") into gosseract's form
func (c *Config) TesseractLanguages() []string {
	return strings.Split(c.TesseractLanguage, "+")
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") or plain seconds ("90")
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}

	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}

func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
