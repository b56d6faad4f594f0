package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database (optional — in-memory store is used when unset)
	DatabaseURL string

	// Redis
	RedisURL string

	// Filesystem
	GeneratedDir string
	FrontendDir  string

	// Groq (script generation)
	GroqKey   string
	GroqModel string

	// Gemini (preferred image provider)
	GeminiKey string

	// ElevenLabs (preferred TTS provider)
	ElevenLabsKey     string
	ElevenLabsVoiceID string

	// Cartesia (secondary TTS provider)
	CartesiaKey     string
	CartesiaURL     string
	CartesiaVoiceID string

	// Rendering
	RenderTimeout time.Duration

	// Worker
	MaxConcurrentJobs int
	ImageConcurrency  int
	CleanupInterval   time.Duration
	RetentionHours    int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8000"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		GeneratedDir:       getEnv("GENERATED_DIR", "generated"),
		FrontendDir:        getEnv("FRONTEND_DIR", "../frontend"),
		GroqKey:            getEnv("GROQ_API_KEY", ""),
		GroqModel:          getEnv("GROQ_MODEL", ""),
		GeminiKey:          getEnv("GEMINI_API_KEY", ""),
		ElevenLabsKey:      getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID:  getEnv("ELEVENLABS_VOICE_ID", ""),
		CartesiaKey:        getEnv("CARTESIA_API_KEY", ""),
		CartesiaURL:        getEnv("CARTESIA_API_URL", "https://api.cartesia.ai"),
		CartesiaVoiceID:    getEnv("CARTESIA_VOICE_ID", ""),
		RenderTimeout:      time.Duration(getEnvInt("RENDER_TIMEOUT_SECONDS", 600)) * time.Second,
		MaxConcurrentJobs:  getEnvInt("MAX_CONCURRENT_JOBS", 4),
		ImageConcurrency:   getEnvInt("IMAGE_CONCURRENCY", 1),
		CleanupInterval:    time.Duration(getEnvInt("CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
		RetentionHours:     getEnvInt("RETENTION_HOURS", 24),
	}

	// Validate required fields. Image and audio providers all have keyless
	// fallbacks, so only the script model is mandatory.
	if cfg.GroqKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
