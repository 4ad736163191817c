package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel      string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr      string        `mapstructure:"HTTP_ADDR"`
	DBURL         string        `mapstructure:"DB_URL"`
	GithubAPIURL  string        `mapstructure:"GITHUB_API_URL"`
	GithubTimeout time.Duration `mapstructure:"GITHUB_TIMEOUT"`
	PageSize      int           `mapstructure:"PAGE_SIZE"`
	AuthSecret    string        `mapstructure:"AUTH_SECRET"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	viper.SetDefault("GITHUB_TIMEOUT", "30s")
	viper.SetDefault("PAGE_SIZE", 25)

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.AuthSecret == "" {
		return nil, errors.New("AUTH_SECRET is a required configuration field")
	}
	if cfg.PageSize <= 0 {
		return nil, errors.New("PAGE_SIZE must be a positive integer")
	}

	return &cfg, nil
}
