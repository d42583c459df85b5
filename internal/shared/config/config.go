package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port                 string
	Env                  string
	BackendBaseURL       string
	BackendTimeout       time.Duration
	AnalyzeTimeout       time.Duration
	ProgressPollInterval time.Duration
	CORSAllowOrigin      []string
	DatabaseURL          string
	LocalStoreDir        string
	PublicBaseURL        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	backendURL := strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://localhost:5000"), "/")

	if env == "production" && os.Getenv("BACKEND_BASE_URL") == "" {
		log.Printf("BACKEND_BASE_URL is required in production")
	}

	return Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  env,
		BackendBaseURL:       backendURL,
		BackendTimeout:       getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		AnalyzeTimeout:       getEnvDuration("ANALYZE_TIMEOUT", 10*time.Minute),
		ProgressPollInterval: getEnvDuration("PROGRESS_POLL_INTERVAL", 2*time.Second),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:8080")),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		LocalStoreDir:        getEnv("LOCAL_STORE_DIR", "./data"),
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
