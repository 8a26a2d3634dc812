package config

import (
	"github.com/vietddude/cardgate/internal/infra/gateway"
	redisclient "github.com/vietddude/cardgate/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Gateway gateway.Config     `yaml:"gateway"`
	Server  ServerConfig       `yaml:"server"`
	Logging LoggingConfig      `yaml:"logging"`
	Redis   redisclient.Config `yaml:"redis"`
	Import  gateway.PollConfig `yaml:"import"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
