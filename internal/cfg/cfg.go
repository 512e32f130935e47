package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"papertrade-dash/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	DataDir            string
	ListenPort         int
	MetricsPort        int
	LookbackDays       int
	InitialCapital     float64
	RiskFreeRate       float64
	DrawdownWindowDays int
	MaxExposure        float64
	MaxPositions       int
	MaxDrawdownAlert   float64
	QuoteURL           string
	QuoteTimeout       time.Duration
	RefreshInterval    time.Duration
}

// ConfigFile is the YAML config shape. Numeric fields are pointers so an
// explicit 0 (e.g. lookbackDays: 0 for the full history) is distinct
// from the key being absent.
type ConfigFile struct {
	System struct {
		DataDir         string `yaml:"dataDir"`
		ListenPort      *int   `yaml:"listenPort"`
		MetricsPort     *int   `yaml:"metricsPort"`
		RefreshInterval string `yaml:"refreshInterval"`
	} `yaml:"system"`

	Dashboard struct {
		LookbackDays   *int     `yaml:"lookbackDays"`
		InitialCapital *float64 `yaml:"initialCapital"`
	} `yaml:"dashboard"`

	Metrics struct {
		RiskFreeRate       *float64 `yaml:"riskFreeRate"`
		DrawdownWindowDays *int     `yaml:"drawdownWindowDays"`
	} `yaml:"metrics"`

	Risk struct {
		MaxPortfolioExposure *float64 `yaml:"maxPortfolioExposure"`
		MaxPositions         *int     `yaml:"maxPositions"`
		MaxDrawdownAlert     *float64 `yaml:"maxDrawdownAlert"`
	} `yaml:"risk"`

	Quotes struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"quotes"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Parse durations
	refresh, err := time.ParseDuration(config.System.RefreshInterval)
	if err != nil {
		refresh = 15 * time.Second
	}

	quoteTimeout, err := time.ParseDuration(config.Quotes.Timeout)
	if err != nil {
		quoteTimeout = 5 * time.Second
	}

	settings := Settings{
		DataDir:            getEnvOrDefault(common.EnvDataDir, stringOrDefault(config.System.DataDir, common.DefaultDataDir)),
		ListenPort:         getIntFromEnvOrConfig(common.EnvListenPort, config.System.ListenPort, common.DefaultListenPort),
		MetricsPort:        getIntFromEnvOrConfig(common.EnvMetricsPort, config.System.MetricsPort, common.DefaultMetricsPort),
		LookbackDays:       getIntFromEnvOrConfig(common.EnvLookbackDays, config.Dashboard.LookbackDays, common.DefaultLookbackDays),
		InitialCapital:     getFloatFromEnvOrConfig(common.EnvInitialCapital, config.Dashboard.InitialCapital, common.DefaultInitialCapital),
		RiskFreeRate:       getFloatFromEnvOrConfig(common.EnvRiskFreeRate, config.Metrics.RiskFreeRate, common.DefaultRiskFreeRate),
		DrawdownWindowDays: getIntFromEnvOrConfig(common.EnvDrawdownWindowDays, config.Metrics.DrawdownWindowDays, common.DefaultDrawdownWindowDays),
		MaxExposure:        getFloatFromEnvOrConfig(common.EnvMaxExposure, config.Risk.MaxPortfolioExposure, common.DefaultMaxExposure),
		MaxPositions:       getIntFromEnvOrConfig(common.EnvMaxPositions, config.Risk.MaxPositions, common.DefaultMaxPositions),
		MaxDrawdownAlert:   getFloatFromEnvOrConfig(common.EnvMaxDrawdownAlert, config.Risk.MaxDrawdownAlert, common.DefaultMaxDrawdownAlert),
		QuoteURL:           getEnvOrDefault(common.EnvQuoteURL, config.Quotes.URL),
		QuoteTimeout:       quoteTimeout,
		RefreshInterval:    refresh,
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DataDir:            getEnvOrDefault(common.EnvDataDir, common.DefaultDataDir),
		ListenPort:         getIntOrDefault(common.EnvListenPort, common.DefaultListenPort),
		MetricsPort:        getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		LookbackDays:       getIntOrDefault(common.EnvLookbackDays, common.DefaultLookbackDays),
		InitialCapital:     getFloatOrDefault(common.EnvInitialCapital, common.DefaultInitialCapital),
		RiskFreeRate:       getFloatOrDefault(common.EnvRiskFreeRate, common.DefaultRiskFreeRate),
		DrawdownWindowDays: getIntOrDefault(common.EnvDrawdownWindowDays, common.DefaultDrawdownWindowDays),
		MaxExposure:        getFloatOrDefault(common.EnvMaxExposure, common.DefaultMaxExposure),
		MaxPositions:       getIntOrDefault(common.EnvMaxPositions, common.DefaultMaxPositions),
		MaxDrawdownAlert:   getFloatOrDefault(common.EnvMaxDrawdownAlert, common.DefaultMaxDrawdownAlert),
		QuoteURL:           os.Getenv(common.EnvQuoteURL), // optional
		QuoteTimeout:       getDurationOrDefault(common.EnvQuoteTimeout, 5*time.Second),
		RefreshInterval:    getDurationOrDefault(common.EnvRefreshInterval, 15*time.Second),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func stringOrDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue *int, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue *float64, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	// Validate data directory
	if settings.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	// Validate ports
	if settings.ListenPort < common.MinPort || settings.ListenPort > common.MaxPort {
		return fmt.Errorf("listen port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.ListenPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen port and metrics port must differ, both are %d", settings.ListenPort)
	}

	// Validate lookback windows
	if settings.LookbackDays < 0 {
		return fmt.Errorf("lookback days cannot be negative, got %d", settings.LookbackDays)
	}
	if settings.DrawdownWindowDays <= 0 {
		return fmt.Errorf("drawdown window must be positive, got %d", settings.DrawdownWindowDays)
	}

	// Validate capital and rates
	if settings.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %f", settings.InitialCapital)
	}
	if settings.RiskFreeRate < 0 || settings.RiskFreeRate > common.MaxRiskFreeRate {
		return fmt.Errorf("risk-free rate must be between 0 and %.1f, got %f", common.MaxRiskFreeRate, settings.RiskFreeRate)
	}

	// Validate risk limits
	if settings.MaxExposure <= 0 || settings.MaxExposure > common.MaxExposureLimit {
		return fmt.Errorf("max portfolio exposure must be between 0 and %.1f, got %f", common.MaxExposureLimit, settings.MaxExposure)
	}
	if settings.MaxPositions < 1 {
		return fmt.Errorf("max positions must be at least 1, got %d", settings.MaxPositions)
	}
	if settings.MaxDrawdownAlert <= 0 || settings.MaxDrawdownAlert >= common.MaxDrawdownCap {
		return fmt.Errorf("max drawdown alert must be between 0 and 1, got %f", settings.MaxDrawdownAlert)
	}

	// Validate intervals
	if settings.RefreshInterval < time.Second || settings.RefreshInterval > 5*time.Minute {
		return fmt.Errorf("refresh interval must be between 1s and 5m, got %v", settings.RefreshInterval)
	}
	if settings.QuoteTimeout < time.Second || settings.QuoteTimeout > time.Minute {
		return fmt.Errorf("quote timeout must be between 1s and 1m, got %v", settings.QuoteTimeout)
	}

	return nil
}
