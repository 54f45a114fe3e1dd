// Package config loads service configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type LoaderConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

type BridgeConfig struct {
	// FetchTimeout bounds each outbound request made through the guest
	// fetch capability.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Loader LoaderConfig `mapstructure:"loader"`
	Bridge BridgeConfig `mapstructure:"bridge"`
	Log    LogConfig    `mapstructure:"log"`
}

// Load reads runlet.yaml from the working directory or ~/.runlet, applies
// RUNLET_* environment overrides, and falls back to defaults when no config
// file exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("runlet")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.runlet")

	v.SetEnvPrefix("RUNLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.listen", "127.0.0.1:3000")
	v.SetDefault("loader.timeout", 30*time.Second)
	v.SetDefault("loader.max_bytes", int64(10<<20))
	v.SetDefault("bridge.fetch_timeout", 30*time.Second)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LogLevel maps the configured level name to a slog level, defaulting to
// info for unknown names.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
