// Package config loads service configuration from environment variables
// and an optional config file via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root service configuration.
type Config struct {
	DatabaseURL     string
	Port            string
	RedisAddr       string
	RedisCacheKey   string
	LogLevel        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CacheTTL        time.Duration
}

// Load reads configuration. Environment variables use the REPRICING_
// prefix (REPRICING_DATABASE_URL, REPRICING_PORT, ...); a config.yaml in
// the working directory or /etc/repricing is honored when present. The
// bare DATABASE_URL and PORT variables are also accepted for parity with
// the usual deployment environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 15*time.Second)
	v.SetDefault("idle_timeout", 60*time.Second)
	v.SetDefault("request_timeout", 60*time.Second)
	v.SetDefault("shutdown_timeout", 30*time.Second)
	v.SetDefault("cache_ttl", time.Duration(0))
	v.SetDefault("redis_cache_key", "repricing:rules:active")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/repricing")

	v.SetEnvPrefix("REPRICING")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unprefixed fallbacks used by the hosting platform.
	v.BindEnv("database_url", "REPRICING_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("port", "REPRICING_PORT", "PORT")
	v.BindEnv("redis_addr", "REPRICING_REDIS_ADDR", "REDIS_ADDR")

	cfg := &Config{
		DatabaseURL:     v.GetString("database_url"),
		Port:            v.GetString("port"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisCacheKey:   v.GetString("redis_cache_key"),
		LogLevel:        v.GetString("log_level"),
		ReadTimeout:     v.GetDuration("read_timeout"),
		WriteTimeout:    v.GetDuration("write_timeout"),
		IdleTimeout:     v.GetDuration("idle_timeout"),
		RequestTimeout:  v.GetDuration("request_timeout"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		CacheTTL:        v.GetDuration("cache_ttl"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required (set REPRICING_DATABASE_URL or DATABASE_URL)")
	}

	return cfg, nil
}
