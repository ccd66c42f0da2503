package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Gemini configuration
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float64
	LLMTimeout   time.Duration

	// Conversation memory
	MemoryTokenLimit int

	// Session configuration
	SessionTimeout time.Duration

	// Upload configuration
	UploadDir    string
	MaxVideoSize int64

	// OCR configuration
	OCRLanguages []string
	OCRModelDir  string

	// Service configuration
	ServiceName string
	HTTPPort    string
}

func Load() *Config {
	return &Config{
		// Gemini settings
		GeminiAPIKey: getEnv("AI_API_TOKEN", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		Temperature:  getFloatEnv("GEMINI_TEMPERATURE", 0.8),
		LLMTimeout:   getDurationEnv("LLM_TIMEOUT", 30*time.Second),

		// Memory settings
		MemoryTokenLimit: getIntEnv("MEMORY_TOKEN_LIMIT", 4096),

		// Session settings
		SessionTimeout: getDurationEnv("SESSION_TIMEOUT", 30*time.Minute),

		// Upload settings
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		MaxVideoSize: int64(getIntEnv("MAX_VIDEO_SIZE", 20*1024*1024)),

		// OCR settings
		OCRLanguages: getListEnv("OCR_LANGUAGES", "eng,ara"),
		OCRModelDir:  getEnv("OCR_MODEL_DIR", "model"),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "visiontext"),
		HTTPPort:    getEnv("PORT", "10000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
