package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// Database configuration
	DatabasePath string

	// API key for bearer auth; auth is disabled when empty
	APIKey string

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Scoring job interval; zero disables the in-process job
	ScoringInterval time.Duration

	// Classifier configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Crawler configuration
	CrawlDelay     time.Duration
	CrawlMaxDepth  int
	CrawlUserAgent string

	// Brand defaults used by brief generation and summaries
	BrandName       string
	BrandDomain     string
	DefaultAudience string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Host:            getEnv("HOST", "localhost"),
		Port:            getEnvInt("PORT", 8787),
		DatabasePath:    getEnv("DATABASE_PATH", "./ontology.db"),
		APIKey:          os.Getenv("API_KEY"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", false),
		MetricsHost:     getEnv("METRICS_HOST", "localhost"),
		MetricsPort:     getEnvInt("METRICS_PORT", 9090),
		ScoringInterval: getEnvDuration("SCORING_INTERVAL", time.Hour),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		CrawlDelay:      getEnvDuration("CRAWL_DELAY", 100*time.Millisecond),
		CrawlMaxDepth:   getEnvInt("CRAWL_MAX_DEPTH", 5),
		CrawlUserAgent:  getEnv("CRAWL_USER_AGENT", "content-ontology-crawler/1.0"),
		BrandName:       getEnv("BRAND_NAME", "WKND"),
		BrandDomain:     getEnv("BRAND_DOMAIN", "Adventure travel and lifestyle"),
		DefaultAudience: getEnv("DEFAULT_AUDIENCE", "adventure travelers"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that cannot be expressed as defaults
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	if c.MetricsEnabled && (c.MetricsPort < 1 || c.MetricsPort > 65535) {
		return fmt.Errorf("METRICS_PORT must be between 1 and 65535")
	}

	var invalid []string
	if c.ScoringInterval < 0 {
		invalid = append(invalid, "SCORING_INTERVAL")
	}
	if c.CrawlDelay < 0 {
		invalid = append(invalid, "CRAWL_DELAY")
	}
	if c.CrawlMaxDepth < 0 {
		invalid = append(invalid, "CRAWL_MAX_DEPTH")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("negative values not allowed for environment variables: %v", invalid)
	}

	return nil
}

// AuthEnabled reports whether bearer auth is enforced
func (c *Config) AuthEnabled() bool {
	return c.APIKey != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvDuration accepts Go duration strings ("90s", "1h") and falls back
// to the default on parse errors
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
