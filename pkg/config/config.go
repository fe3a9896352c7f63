package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

type Config struct {
	Port string

	LLMProvider string
	LLMTimeout  time.Duration

	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string

	OpenRouterAPIKey   string
	OpenRouterBase     string
	OpenRouterModel    string
	OpenRouterAppTitle string
	OpenRouterReferer  string

	DefaultLocale    string
	MaxUploadBytes   int64
	MaxDocumentChars int

	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	LogLevel slog.Level
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	return Config{
		Port:               getEnv("PORT", "8080"),
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		LLMTimeout:         time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 0)) * time.Second,
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBase:     getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:    getEnv("OPENROUTER_MODEL", "google/gemini-flash-1.5"),
		OpenRouterAppTitle: getEnv("OPENROUTER_APP_TITLE", "IngenIAr"),
		OpenRouterReferer:  os.Getenv("OPENROUTER_REFERER"),
		DefaultLocale:      strings.ToLower(getEnv("DEFAULT_LOCALE", "es")),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 15<<20)),
		MaxDocumentChars:   getEnvInt("MAX_DOCUMENT_CHARS", 12_000),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTIssuer:          getEnv("JWT_ISSUER", "bizgen"),
		JWTTTLMinutes:      getEnvInt("JWT_TTL_MINUTES", 60),
		LogLevel:           parseLevel(os.Getenv("LOG_LEVEL")),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return errors.New("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q: use %s or %s", c.LLMProvider, ProviderGemini, ProviderOpenRouter)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// AuthEnabled is true when a JWT secret is configured.
func (c Config) AuthEnabled() bool { return c.JWTSecret != "" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func parseLevel(v string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
