package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vietddude/cardgate/internal/infra/gateway"
	"gopkg.in/yaml.v2"
)

// GatewayURLEnv overrides gateway.base_url when set.
const GatewayURLEnv = "API_GATEWAY_URL"

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*AppConfig, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	cfg := &AppConfig{Gateway: gateway.DefaultConfig()}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if url := os.Getenv(GatewayURLEnv); url != "" {
		cfg.Gateway.BaseURL = url
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = gateway.DefaultBaseURL
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Import.Interval <= 0 {
		cfg.Import.Interval = gateway.DefaultPollConfig.Interval
	}
	if cfg.Import.MaxWait <= 0 {
		cfg.Import.MaxWait = gateway.DefaultPollConfig.MaxWait
	}
}
