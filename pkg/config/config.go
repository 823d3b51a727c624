// Package config loads the process configuration from a YAML file, a .env
// file and RAIL_ROUTER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required"`
	ReadTimeout    time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" validate:"gt=0"`
	MaxConcurrent  int           `yaml:"max_concurrent" validate:"gte=1"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// DatasetConfig names the railway dataset file.
type DatasetConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// RoutingConfig holds search defaults.
type RoutingConfig struct {
	MaxRoutes           int           `yaml:"max_routes" validate:"gte=1,lte=50"`
	AllowShinkansen     bool          `yaml:"allow_shinkansen"`
	AllowLimitedExpress bool          `yaml:"allow_limited_express"`
	CacheTTL            time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	SearchWorkers       int           `yaml:"search_workers" validate:"gte=0"` // 0 = one per CPU
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json plain"`
}

// Config is the root configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Dataset DatasetConfig `yaml:"dataset"`
	Routing RoutingConfig `yaml:"routing"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxConcurrent:  64,
			RequestTimeout: 5 * time.Second,
		},
		Dataset: DatasetConfig{Path: "data/network.json"},
		Routing: RoutingConfig{
			MaxRoutes:           5,
			AllowShinkansen:     true,
			AllowLimitedExpress: true,
			CacheTTL:            5 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RAIL_ROUTER_"

var validate = validator.New()

// Load reads the YAML file at path (skipped when path is empty), then the
// given .env files (missing ones are ignored), then applies environment
// overrides and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = d
		return nil
	}
	flag := func(key string, dst *bool) error {
		v := getenv(EnvPrefix + key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("ADDR", &cfg.Server.Addr)
	str("DATASET", &cfg.Dataset.Path)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	if v := getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	return errors.Join(
		num("MAX_CONCURRENT", &cfg.Server.MaxConcurrent),
		num("MAX_ROUTES", &cfg.Routing.MaxRoutes),
		num("SEARCH_WORKERS", &cfg.Routing.SearchWorkers),
		dur("READ_TIMEOUT", &cfg.Server.ReadTimeout),
		dur("WRITE_TIMEOUT", &cfg.Server.WriteTimeout),
		dur("REQUEST_TIMEOUT", &cfg.Server.RequestTimeout),
		dur("CACHE_TTL", &cfg.Routing.CacheTTL),
		flag("ALLOW_SHINKANSEN", &cfg.Routing.AllowShinkansen),
		flag("ALLOW_LIMITED_EXPRESS", &cfg.Routing.AllowLimitedExpress),
	)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
