package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Provider identifiers for the market data quote source
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderYahoo        = "yahoo"
)

// Config holds application configuration
type Config struct {
	Port            int
	DevMode         bool
	DatabasePath    string
	LogLevel        string
	MarketProvider  string
	AlphaVantageKey string
	QuoteTimeout    time.Duration
	PriceCacheTTL   time.Duration
	RefreshSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/findash.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MarketProvider:  getEnv("MARKET_PROVIDER", ProviderAlphaVantage),
		AlphaVantageKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		QuoteTimeout:    time.Duration(getEnvAsInt("QUOTE_TIMEOUT_SECONDS", 5)) * time.Second,
		PriceCacheTTL:   time.Duration(getEnvAsInt("PRICE_CACHE_TTL_SECONDS", 300)) * time.Second,
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */5 * * * *"), // Every 5 minutes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	switch c.MarketProvider {
	case ProviderAlphaVantage, ProviderYahoo:
	default:
		return fmt.Errorf("MARKET_PROVIDER must be %q or %q, got %q",
			ProviderAlphaVantage, ProviderYahoo, c.MarketProvider)
	}

	if c.MarketProvider == ProviderAlphaVantage && c.AlphaVantageKey == "" {
		return fmt.Errorf("ALPHA_VANTAGE_API_KEY is required when MARKET_PROVIDER is %q", ProviderAlphaVantage)
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
