// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables; the
// two credential variables keep their historical un-prefixed names.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Keys   KeysConfig   `mapstructure:"keys"`
	State  StateConfig  `mapstructure:"state"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Logger LoggerConfig `mapstructure:"logger"`
}

// APIConfig holds Data API settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// KeysConfig holds credential sourcing settings.
type KeysConfig struct {
	// Single is one API key, bound to YOUTUBE_API_KEY.
	Single string `mapstructure:"single"`

	// List is a comma-separated key list, bound to YOUTUBE_API_KEYS.
	List string `mapstructure:"list"`

	// StorePath is the SQLite operator key store; empty disables it.
	StorePath string `mapstructure:"store_path"`
}

// StateConfig holds rotation cursor persistence settings.
type StateConfig struct {
	// Backend selects the cursor store: "file" or "redis".
	Backend string `mapstructure:"backend"`

	// Path of the cursor file for the file backend.
	Path string `mapstructure:"path"`
}

// RedisConfig holds Redis connection settings for the redis state backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // console output instead of JSON
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	v.SetEnvPrefix("YT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Historical names, kept for compatibility with existing deployments.
	_ = v.BindEnv("keys.single", "YOUTUBE_API_KEY")
	_ = v.BindEnv("keys.list", "YOUTUBE_API_KEYS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("api.timeout", "10s")

	v.SetDefault("keys.store_path", ".api_keys.db")

	v.SetDefault("state.backend", "file")
	v.SetDefault("state.path", ".yt_cursor.json")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.pretty", false)
}
