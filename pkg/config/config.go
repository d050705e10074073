package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lexaprendiz/lexaprendiz/pkg/auth"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIMaxTokens int
	GeminiAPIKey    string
	GeminiModel     string
	SystemPrompt    string

	AdminUsername  string
	AdminPassword  string
	RequiredFields []auth.Field
	CORSOrigins    string
}

// Load reads environment variables, optionally from a .env file if present.
func Load() (Config, error) {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("APP_ENV", "production"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:     getEnv("JWT_ISSUER", "lexaprendiz"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIMaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 500),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     os.Getenv("GEMINI_MODEL"),
		SystemPrompt:    os.Getenv("LLM_SYSTEM_PROMPT"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
	}

	switch cfg.LLMProvider {
	case "openai", "gemini":
	default:
		return Config{}, fmt.Errorf("LLM_PROVIDER: unknown provider %q", cfg.LLMProvider)
	}

	cfg.RequiredFields = auth.DefaultRequiredFields
	if v, ok := os.LookupEnv("REGISTER_REQUIRED_FIELDS"); ok {
		fields, err := auth.ParseFields(v)
		if err != nil {
			return Config{}, fmt.Errorf("REGISTER_REQUIRED_FIELDS: %w", err)
		}
		cfg.RequiredFields = fields
	}
	return cfg, nil
}

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
