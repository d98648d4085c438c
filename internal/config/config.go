// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Probe    ProbeConfig    `mapstructure:"probe" yaml:"probe"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Chain    ChainConfig    `mapstructure:"chain" yaml:"chain"`
	// Scan gets its marching orders from CLI flags, not the config file.
	Scan ScanConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU      bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
}

// ProbeConfig tunes the interaction prober. Settle timing is deliberately
// configuration rather than baked-in constants.
type ProbeConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	PostClickWait     time.Duration `mapstructure:"post_click_wait" yaml:"post_click_wait"`
	NetworkQuiet      time.Duration `mapstructure:"network_quiet" yaml:"network_quiet"`
	MaxControls       int           `mapstructure:"max_controls" yaml:"max_controls"`
	MaxTestedClicks   int           `mapstructure:"max_tested_clicks" yaml:"max_tested_clicks"`
}

// AnalyzerConfig tunes the bytecode risk analyzer.
type AnalyzerConfig struct {
	MaxContracts int `mapstructure:"max_contracts" yaml:"max_contracts"`
	// LargeBytecodeThreshold is in hex characters of the deployed code.
	LargeBytecodeThreshold int `mapstructure:"large_bytecode_threshold" yaml:"large_bytecode_threshold"`
}

// ResolverConfig tunes the selector resolver's external lookups.
type ResolverConfig struct {
	LookupURL     string        `mapstructure:"lookup_url" yaml:"lookup_url"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" yaml:"lookup_timeout"`
	LookupDelay   time.Duration `mapstructure:"lookup_delay" yaml:"lookup_delay"`
	MaxLookups    int           `mapstructure:"max_lookups" yaml:"max_lookups"`
}

// ChainConfig points at the code-source collaborators.
type ChainConfig struct {
	EtherscanURL    string        `mapstructure:"etherscan_url" yaml:"etherscan_url"`
	EtherscanAPIKey string        `mapstructure:"etherscan_api_key" yaml:"-"`
	RPCURL          string        `mapstructure:"rpc_url" yaml:"rpc_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// ScanConfig holds settings populated from CLI flags for a specific scan job.
type ScanConfig struct {
	Target  string
	Output  string
	Format  string
	Timeout time.Duration
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dappscan-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.ignore_tls_errors", false)

	// -- Probe --
	v.SetDefault("probe.navigation_timeout", "30s")
	v.SetDefault("probe.settle_delay", "3s")
	v.SetDefault("probe.post_click_wait", "1s")
	v.SetDefault("probe.network_quiet", "1500ms")
	v.SetDefault("probe.max_controls", 20)
	v.SetDefault("probe.max_tested_clicks", 10)

	// -- Analyzer --
	v.SetDefault("analyzer.max_contracts", 5)
	v.SetDefault("analyzer.large_bytecode_threshold", 50000)

	// -- Resolver --
	v.SetDefault("resolver.lookup_url", "https://www.4byte.directory/api/v1/signatures/")
	v.SetDefault("resolver.lookup_timeout", "5s")
	v.SetDefault("resolver.lookup_delay", "100ms")
	v.SetDefault("resolver.max_lookups", 10)

	// -- Chain --
	v.SetDefault("chain.etherscan_url", "https://api.etherscan.io/api")
	v.SetDefault("chain.rpc_url", "https://eth.llamarpc.com")
	v.SetDefault("chain.request_timeout", "10s")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Probe.MaxControls <= 0 {
		return fmt.Errorf("probe.max_controls must be a positive integer")
	}
	if c.Probe.MaxTestedClicks <= 0 {
		return fmt.Errorf("probe.max_tested_clicks must be a positive integer")
	}
	if c.Probe.MaxTestedClicks > c.Probe.MaxControls {
		return fmt.Errorf("probe.max_tested_clicks cannot exceed probe.max_controls")
	}
	if c.Probe.NavigationTimeout <= 0 {
		return fmt.Errorf("probe.navigation_timeout must be a positive duration")
	}
	if c.Analyzer.MaxContracts <= 0 {
		return fmt.Errorf("analyzer.max_contracts must be a positive integer")
	}
	if c.Analyzer.LargeBytecodeThreshold <= 0 {
		return fmt.Errorf("analyzer.large_bytecode_threshold must be a positive integer")
	}
	if c.Resolver.MaxLookups < 0 {
		return fmt.Errorf("resolver.max_lookups cannot be negative")
	}
	if c.Resolver.LookupTimeout <= 0 {
		return fmt.Errorf("resolver.lookup_timeout must be a positive duration")
	}
	return nil
}
