package config

import (
	"os"
	"strconv"
	"time"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	Storage     string // postgres | memory
	TablePrefix string
	CORSOrigins string

	// Auth. An empty JWKS URL in dev runs every request as the dev identity.
	AuthJWKSURL string
	DevOrgID    string
	DevUserID   string
	DevUsername string
	DevRole     string

	// LLM Configuration
	OpenAIAPIKey       string
	AnthropicAPIKey    string
	DefaultModel       string
	DefaultTemperature float64
	DefaultMaxTokens   int
	ModelTimeout       time.Duration

	// Reference sampling
	SamplerMaxDocuments int
	SamplerMaxChars     int
	SamplerMaxTokens    int

	// Logging
	LogDir      string
	LogMaxFiles int

	// Debug flags
	Debug bool // Enables debug logging
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Storage:     getEnv("STORAGE", StoragePostgres),
		TablePrefix: tablePrefix,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		AuthJWKSURL: getEnv("AUTH_JWKS_URL", ""),
		DevOrgID:    getEnv("DEV_ORG_ID", "00000000-0000-0000-0000-000000000001"),
		DevUserID:   getEnv("DEV_USER_ID", "00000000-0000-0000-0000-000000000002"),
		DevUsername: getEnv("DEV_USERNAME", "dev"),
		DevRole:     getEnv("DEV_ROLE", "admin"),

		// LLM Configuration
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		DefaultModel:       getEnv("DEFAULT_MODEL", "gpt-3.5-turbo-0125"),
		DefaultTemperature: getEnvFloat("DEFAULT_TEMPERATURE", 0.7),
		DefaultMaxTokens:   getEnvInt("DEFAULT_MAX_TOKENS", 4000),
		ModelTimeout:       getEnvDuration("MODEL_TIMEOUT", 90*time.Second),

		SamplerMaxDocuments: getEnvInt("SAMPLER_MAX_DOCS", 3),
		SamplerMaxChars:     getEnvInt("SAMPLER_MAX_CHARS", 600),
		SamplerMaxTokens:    getEnvInt("SAMPLER_MAX_TOKENS", 3000),

		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
