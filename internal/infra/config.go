package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds all application settings. Sensitive values can be overridden
// through environment variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	API struct {
		CoinAPI struct {
			BaseURL            string `yaml:"base_url"`
			Key                string `yaml:"key"`
			RefreshIntervalMin int    `yaml:"refresh_interval_min"`
			RetryCount         int    `yaml:"retry_count"`
		} `yaml:"coinapi"`
	} `yaml:"api"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server host is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.API.CoinAPI.BaseURL == "" {
		return fmt.Errorf("coinapi base URL is required")
	}
	if c.API.CoinAPI.RefreshIntervalMin <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.API.CoinAPI.RetryCount <= 0 {
		return fmt.Errorf("retry count must be positive")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	return nil
}

// overrideWithEnv overwrites settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("WALLET_COINAPI_KEY"); key != "" {
		cfg.API.CoinAPI.Key = key
	}
	if path := os.Getenv("WALLET_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
