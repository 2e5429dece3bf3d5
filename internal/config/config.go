package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	OllamaBaseURL string

	GeminiAPIKey string
	GeminiModel  string

	StorageBackend string // "memory" or "firestore"
	GCPProjectID   string

	UseMockLLM bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads .env (if present) and all env vars and builds the config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "5000"),

		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		StorageBackend: getEnv("STORAGE_BACKEND", "memory"),
		GCPProjectID:   getEnv("GCP_PROJECT", ""),

		UseMockLLM: getBoolEnv("USE_MOCK_LLM", false),
	}

	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("GCP_PROJECT must be set for the firestore storage backend")
	}

	return cfg
}
