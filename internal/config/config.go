package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	FrontendURL     string
	EnableHSTS      bool
	ServerDebugMode bool
	RedisURL        string
	RateLimit       string
	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP decide the client
	// IP. Only enable it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	GitHubToken  string
	GitHubUser   string
	GitHubAPIURL string
	GitLabToken  string
	GitLabAPIURL string

	PrivateContributionsFile string
	ProviderTimeout          time.Duration

	OTELEnabled    bool
	OTELEndpoint   string
	MetricsEnabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		RedisURL:        getEnv("REDIS_URL", ""),
		RateLimit:       getEnv("RATE_LIMIT", "30-M"),

		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		GitHubUser:   getEnv("GITHUB_USER", ""),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com/graphql"),
		GitLabToken:  getEnv("GITLAB_TOKEN", ""),
		GitLabAPIURL: getEnv("GITLAB_API_URL", "https://gitlab.com/api/v4"),

		PrivateContributionsFile: getEnv("PRIVATE_CONTRIBUTIONS_FILE", ""),
		ProviderTimeout:          getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),

		OTELEnabled:    getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	if cfg.GitHubUser == "" {
		return nil, fmt.Errorf("GITHUB_USER is required")
	}

	if cfg.ProviderTimeout <= 0 {
		return nil, fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", cfg.ProviderTimeout)
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
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("15s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
