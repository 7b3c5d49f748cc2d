package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds the probe server settings
type Config struct {
	Port            string        `mapstructure:"port"`
	StoragePath     string        `mapstructure:"storage_path"`
	JWTSigningKey   string        `mapstructure:"jwt_signing_key"`
	JWTIssuer       string        `mapstructure:"jwt_issuer"`
	RelayTimeout    time.Duration `mapstructure:"relay_timeout"`
	ProbeGrace      time.Duration `mapstructure:"probe_grace"`
	ProxyTimeout    time.Duration `mapstructure:"proxy_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Load reads the optional YAML file at configFile, then applies environment
// overrides (PORT, JWT_SIGNING_KEY, ...). An empty configFile means
// environment and defaults only.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("storage_path", "./data/runs")
	v.SetDefault("jwt_signing_key", "")
	v.SetDefault("jwt_issuer", "apiprobe")
	v.SetDefault("relay_timeout", 5*time.Second)
	v.SetDefault("probe_grace", 0)
	v.SetDefault("proxy_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("shutdown_timeout", 30*time.Second)

	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded settings
func (c *Config) Validate() error {
	if c.JWTSigningKey == "" {
		return errors.New("jwt_signing_key is required")
	}
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.RelayTimeout <= 0 {
		return errors.New("relay_timeout must be positive")
	}
	if c.ProbeGrace < 0 {
		return errors.New("probe_grace cannot be negative")
	}
	if c.ProxyTimeout <= 0 {
		return errors.New("proxy_timeout must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level is the parsed log level, info when unset
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
