// Package config loads process configuration from .env, config.yml and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "secret_key_change_me"

// Config holds process-level settings. Site-level settings (admin id,
// write delay, search part) live in the g5_config table instead.
type Config struct {
	Env           string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisURL      string `mapstructure:"REDIS_URL"`
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SiteURL       string `mapstructure:"SITE_URL"`
	TablePrefix   string `mapstructure:"TABLE_PREFIX"`
	UseThrottle   bool   `mapstructure:"USE_THROTTLE"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	AutoMigrate   bool   `mapstructure:"AUTO_MIGRATE"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

// Load reads .env (if present), then config.yml and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading env vars from system")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=board port=5432 sslmode=disable TimeZone=Asia/Seoul")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("SESSION_SECRET", defaultJWTSecret)
	v.SetDefault("SITE_URL", "http://localhost:8080")
	v.SetDefault("TABLE_PREFIX", "g5_write_")
	v.SetDefault("USE_THROTTLE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("ADMIN_PASSWORD", "")

	// config file is optional
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks required values and refuses default secrets in production.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.TablePrefix == "" {
		return errors.New("TABLE_PREFIX is required")
	}
	if c.IsProduction() {
		if c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be changed and at least 32 characters in production")
		}
		if c.SessionSecret == defaultJWTSecret {
			return errors.New("SESSION_SECRET must be changed in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// WriteTable returns the physical table name of a board.
func (c *Config) WriteTable(boTable string) string {
	return c.TablePrefix + boTable
}
