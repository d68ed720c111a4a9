// Package common provides shared utilities for pricecast
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for pricecast
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Clients     ClientsConfig  `toml:"clients"`
	History     HistoryConfig  `toml:"history"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Output      OutputConfig   `toml:"output"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	TDAmeritrade ProviderConfig `toml:"tdameritrade"`
	EODHD        ProviderConfig `toml:"eodhd"`
}

// ProviderConfig holds market-data API configuration
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// HistoryConfig selects the provider and the shape of the price history request.
type HistoryConfig struct {
	Provider      string `toml:"provider"`       // "tdameritrade" or "eodhd"
	PeriodType    string `toml:"period_type"`    // day, month, year, ytd
	Periods       int    `toml:"periods"`        // number of periods to fetch
	FrequencyType string `toml:"frequency_type"` // minute, daily, weekly, monthly
	Frequency     int    `toml:"frequency"`      // candles per frequency type
}

// AnalysisConfig holds the transform and model settings.
type AnalysisConfig struct {
	Lag        int `toml:"lag"`
	Window     int `toml:"window"`
	AROrder    int `toml:"ar_order"`
	MAOrder    int `toml:"ma_order"`
	Steps      int `toml:"steps"`
	PlotPoints int `toml:"plot_points"`
}

// OutputConfig controls where charts and results are written.
type OutputConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"` // png, svg or pdf
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			TDAmeritrade: ProviderConfig{
				BaseURL:   "https://api.tdameritrade.com/v1",
				RateLimit: 2,
				Timeout:   "30s",
			},
			EODHD: ProviderConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		History: HistoryConfig{
			Provider:      "tdameritrade",
			PeriodType:    "year",
			Periods:       20,
			FrequencyType: "daily",
			Frequency:     1,
		},
		Analysis: AnalysisConfig{
			Lag:        1,
			Window:     20,
			AROrder:    1,
			MAOrder:    0,
			Steps:      2,
			PlotPoints: 200,
		},
		Output: OutputConfig{
			Path:   "output",
			Format: "png",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/pricecast.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PRICECAST_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("PRICECAST_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PRICECAST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("PRICECAST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if provider := os.Getenv("PRICECAST_PROVIDER"); provider != "" {
		config.History.Provider = strings.ToLower(provider)
	}

	if path := os.Getenv("PRICECAST_OUTPUT_PATH"); path != "" {
		config.Output.Path = path
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ProviderConfig returns the client settings for the named provider.
func (c *Config) ProviderConfig(provider string) (ProviderConfig, error) {
	switch provider {
	case "tdameritrade":
		return c.Clients.TDAmeritrade, nil
	case "eodhd":
		return c.Clients.EODHD, nil
	}
	return ProviderConfig{}, fmt.Errorf("unknown history provider %q", provider)
}

// ResolveAPIKey resolves an API key from the environment, falling back to
// the configured value.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"tdameritrade_api_key": {"TDA_API_KEY", "PRICECAST_TDA_API_KEY"},
		"eodhd_api_key":        {"EODHD_API_KEY", "PRICECAST_EODHD_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
