// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Probe.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Probe.SettleDelay)
	assert.Equal(t, 20, cfg.Probe.MaxControls)
	assert.Equal(t, 10, cfg.Probe.MaxTestedClicks)
	assert.Equal(t, 5, cfg.Analyzer.MaxContracts)
	assert.Equal(t, 50000, cfg.Analyzer.LargeBytecodeThreshold)
	assert.Equal(t, "https://www.4byte.directory/api/v1/signatures/", cfg.Resolver.LookupURL)
	assert.Equal(t, 100*time.Millisecond, cfg.Resolver.LookupDelay)
	assert.Equal(t, 10, cfg.Resolver.MaxLookups)
	assert.Equal(t, "https://api.etherscan.io/api", cfg.Chain.EtherscanURL)
	assert.Equal(t, 10*time.Second, cfg.Chain.RequestTimeout)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate(), "a valid default config should pass validation")

	t.Run("Probe Validation", func(t *testing.T) {
		invalid := *cfg
		invalid.Probe.MaxControls = 0
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "probe.max_controls")

		invalid = *cfg
		invalid.Probe.MaxTestedClicks = invalid.Probe.MaxControls + 1
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "probe.max_tested_clicks cannot exceed")

		invalid = *cfg
		invalid.Probe.NavigationTimeout = 0
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "probe.navigation_timeout")
	})

	t.Run("Analyzer Validation", func(t *testing.T) {
		invalid := *cfg
		invalid.Analyzer.MaxContracts = 0
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "analyzer.max_contracts")
	})

	t.Run("Resolver Validation", func(t *testing.T) {
		invalid := *cfg
		invalid.Resolver.MaxLookups = -1
		err := invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.max_lookups")

		invalid = *cfg
		invalid.Resolver.LookupTimeout = 0
		err = invalid.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.lookup_timeout")
	})
}

// -- Viper Integration Tests --

func TestEnvironmentOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	v.Set("probe.max_tested_clicks", 4)
	v.Set("chain.etherscan_api_key", "from-env")

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 4, cfg.Probe.MaxTestedClicks)
	assert.Equal(t, "from-env", cfg.Chain.EtherscanAPIKey)
	// Untouched values still come from defaults.
	assert.Equal(t, 20, cfg.Probe.MaxControls)
}

func TestDurationParsingFromStrings(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("probe.settle_delay", "250ms")
	v.Set("scan_timeout", "2m")

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.SettleDelay)
}
