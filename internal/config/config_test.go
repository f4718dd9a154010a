package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ProviderAlphaVantage, cfg.MarketProvider)
	assert.Equal(t, 5*time.Second, cfg.QuoteTimeout)
	assert.Equal(t, 5*time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, "0 */5 * * * *", cfg.RefreshSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MARKET_PROVIDER", "yahoo")
	t.Setenv("PRICE_CACHE_TTL_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ProviderYahoo, cfg.MarketProvider)
	assert.Equal(t, time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate_AlphaVantageRequiresKey(t *testing.T) {
	t.Setenv("MARKET_PROVIDER", "alphavantage")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALPHA_VANTAGE_API_KEY")
}

func TestValidate_UnknownProvider(t *testing.T) {
	t.Setenv("MARKET_PROVIDER", "bloomberg")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MARKET_PROVIDER")
}

func TestValidate_YahooNeedsNoKey(t *testing.T) {
	t.Setenv("MARKET_PROVIDER", "yahoo")
	t.Setenv("ALPHA_VANTAGE_API_KEY", "")

	_, err := Load()
	assert.NoError(t, err)
}
