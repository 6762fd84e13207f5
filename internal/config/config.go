package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Wizard    WizardConfig
	NLU       NLUConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string
}

// RateLimitConfig bounds requests per caller identity.
type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Window returns the configured window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// WizardConfig controls multi-turn session lifecycle.
type WizardConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// TTL returns the idle expiry as a duration.
func (c WizardConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// NLUConfig tunes intent matching.
type NLUConfig struct {
	// MinConfidence is the floor below which a match counts as unrecognized.
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// Load reads configuration from file and env. Env var overrides use prefix CAJABOT_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "cajabot", "cajabot.db"))
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("ratelimit.max_requests", 20)
	v.SetDefault("ratelimit.window_seconds", 60)
	v.SetDefault("wizard.ttl_minutes", 30)
	v.SetDefault("nlu.min_confidence", 0.5)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CAJABOT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "cajabot"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CAJABOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
