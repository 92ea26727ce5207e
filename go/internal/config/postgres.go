package config

import (
	"fmt"
	"net/url"
)

// PostgresConfig holds Postgres connection settings. It builds the preset store dsn when
// PRESET_DSN is not set.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewPostgresConfigFromEnv reads DB_* environment variables (with defaults).
func NewPostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "draftcast"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the Postgres connection URL.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		url.UserPassword(c.User, c.Password).String(), c.Host, c.Port, c.Database, c.SSLMode,
	)
}
