// Package config loads service configuration from the environment with an
// optional YAML file override.
package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines service configuration.
type Config struct {
	DatabaseURL    string `yaml:"database_url"`
	HTTPAddr       string `yaml:"http_addr"`
	RetentionLimit int    `yaml:"retention_limit"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	JWTSecret      string `yaml:"jwt_secret"`
}

// Load builds config from env defaults, then applies a yaml file when
// CONFIG_FILE is set. An empty JWTSecret disables authentication.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:    getenvDefault("DATABASE_URL", os.Getenv("PG_DSN")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		RetentionLimit: getenvIntDefault("RETENTION_LIMIT", 5),
		MaxUploadBytes: getenvInt64Default("MAX_UPLOAD_BYTES", 10<<20),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", os.Getenv("JWT_SECRET")),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL is required")
	}
	if cfg.RetentionLimit <= 0 {
		return cfg, errors.New("config: retention limit must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return cfg, errors.New("config: max upload bytes must be positive")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64Default(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
