package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the configuration shared by the lattice CLI commands.
type Config struct {
	// Origin is the scheme://host the client resolves endpoint paths against.
	Origin string `yaml:"origin"`

	// Debug overrides the build-time debug switch when set.
	Debug *bool `yaml:"debug,omitempty"`

	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`

	// Trace prints OpenTelemetry spans to stderr.
	Trace bool `yaml:"trace"`
}

// LogConfig selects level and handler of the slog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Addr       string        `yaml:"addr"`
	Store      string        `yaml:"store"` // "memory" or "redis"
	SessionTTL time.Duration `yaml:"session_ttl"`
	Admin      Credentials   `yaml:"admin"`
	Seed       bool          `yaml:"seed"`
}

// Credentials is a username/password pair.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// envOverrides holds the only environment switch lattice reads.
type envOverrides struct {
	Debug *bool `env:"LATTICE_DEBUG"`
}

// StoreMemory and StoreRedis are the accepted values of ServerConfig.Store.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Origin: "http://localhost:5000",
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:       ":5000",
			Store:      StoreMemory,
			SessionTTL: 24 * time.Hour,
			Admin:      Credentials{Username: "admin"},
		},
		Redis: RedisConfig{Addr: "localhost:6379", Prefix: "lattice:"},
	}
}

// Load reads the YAML file at path on top of Default, then applies the environment switch.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.Debug != nil {
		c.Debug = e.Debug
	}
	return nil
}

// Validate checks the fields that have a closed set of values.
func (c Config) Validate() error {
	var errs []error
	switch c.Server.Store {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("server.store must be %q or %q, got %q", StoreMemory, StoreRedis, c.Server.Store))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Server.SessionTTL < 0 {
		errs = append(errs, errors.New("server.session_ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// DebugEnabled resolves the debug switch: the configured value wins over the build default.
func (c Config) DebugEnabled(buildDefault bool) bool {
	if c.Debug != nil {
		return *c.Debug
	}
	return buildDefault
}
