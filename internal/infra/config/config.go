package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port string

	SearchHost   string
	SearchAPIKey string
	SerpIndex    string
	SnippetIndex string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	SerpLimit         int
	PoolSize          int
	FilterBatchSize   int
	EnableDomainBoost bool
	BoostTopDomains   int
	PrecisionPool     bool

	SeedToken string
	SeedRatio float64
}

func Load() *Config {
	// Best-effort .env loading for local development; real deployments
	// set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		SearchHost:   getEnv("SEARCH_HOST", "http://localhost:7700"),
		SearchAPIKey: getSecret("SEARCH_API_KEY", "SEARCH_API_KEY_FILE", ""),
		SerpIndex:    getEnv("SERP_INDEX", "aql_serps"),
		SnippetIndex: getEnv("SNIPPET_INDEX", "aql_results"),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.helmholtz-blablador.fz-juelich.de/v1"),
		LLMAPIKey:  getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
		LLMModel:   getEnv("LLM_MODEL", "alias-fast"),

		SerpLimit:         getEnvInt("SERP_LIMIT", 100),
		PoolSize:          getEnvInt("QUERY_POOL_SIZE", 10),
		FilterBatchSize:   getEnvInt("FILTER_BATCH_SIZE", 5),
		EnableDomainBoost: getEnvBool("ENABLE_DOMAIN_BOOST", false),
		BoostTopDomains:   getEnvInt("BOOST_TOP_DOMAINS", 2),
		PrecisionPool:     getEnvBool("PRECISION_POOL", false),

		SeedToken: getEnv("PROMPT_SEED_TOKEN", ""),
		SeedRatio: getEnvFloat("PROMPT_SEED_RATIO", 0.35),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// Docker-style secret file indirection.
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
