package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends understood by store.Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendInflux   = "influx"
	BackendBadger   = "badger"
)

const defaultConfigPath = "configs/config.yaml"

// Config holds runtime settings for the flow viewer.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
	Chart ChartConfig `yaml:"chart"`
	Debug DebugConfig `yaml:"debug"`
	Store StoreConfig `yaml:"store"`
}

// HTTPConfig controls the listener.
type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ChartConfig sizes rendered images and sets the fixed time axis shift.
type ChartConfig struct {
	Width    int           `yaml:"width"`
	Height   int           `yaml:"height"`
	TZOffset time.Duration `yaml:"tzOffset"`
}

// DebugConfig gates developer-only endpoints.
type DebugConfig struct {
	Enabled bool `yaml:"enabled"`
}

// StoreConfig selects and configures the reading store.
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	Influx   InfluxConfig   `yaml:"influx"`
	Badger   BadgerConfig   `yaml:"badger"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// InfluxConfig points at the bucket, measurement and field holding readings.
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
	Field       string `yaml:"field"`
}

// BadgerConfig locates the embedded database; an empty path keeps it in memory.
type BadgerConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:           8080,
			RequestTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "INFO"},
		Chart: ChartConfig{
			Width:    640,
			Height:   480,
			TZOffset: -8 * time.Hour,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Influx: InfluxConfig{
				Measurement: "flow",
				Field:       "val",
			},
		},
	}
}

// Load reads configuration from an optional YAML file and then applies
// environment overrides. A .env file, if present, is loaded into the
// environment first.
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(&cfg, path); err != nil {
			return cfg, err
		}
	} else if _, err := os.Stat(defaultConfigPath); err == nil {
		if err := hydrateFromFile(&cfg, defaultConfigPath); err != nil {
			return cfg, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid HTTP_PORT: %s", v)
		}
		cfg.HTTP.Port = port
	}
	if v := os.Getenv("HTTP_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_REQUEST_TIMEOUT: %s", v)
		}
		cfg.HTTP.RequestTimeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CHART_WIDTH"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHART_WIDTH: %s", v)
		}
		cfg.Chart.Width = width
	}
	if v := os.Getenv("CHART_HEIGHT"); v != "" {
		height, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHART_HEIGHT: %s", v)
		}
		cfg.Chart.Height = height
	}
	if v := os.Getenv("CHART_TZ_OFFSET"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHART_TZ_OFFSET: %s", v)
		}
		cfg.Chart.TZOffset = d
	}
	if v := os.Getenv("DEBUG_ROUTES"); v != "" {
		cfg.Debug.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("INFLUXDB_URL"); v != "" {
		cfg.Store.Influx.URL = v
	}
	if v := os.Getenv("INFLUXDB_TOKEN"); v != "" {
		cfg.Store.Influx.Token = v
	}
	if v := os.Getenv("INFLUXDB_ORG"); v != "" {
		cfg.Store.Influx.Org = v
	}
	if v := os.Getenv("INFLUXDB_BUCKET"); v != "" {
		cfg.Store.Influx.Bucket = v
	}
	if v := os.Getenv("INFLUXDB_MEASUREMENT"); v != "" {
		cfg.Store.Influx.Measurement = v
	}
	if v := os.Getenv("INFLUXDB_FIELD"); v != "" {
		cfg.Store.Influx.Field = v
	}
	if v := os.Getenv("BADGER_PATH"); v != "" {
		cfg.Store.Badger.Path = v
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 {
		return errors.New("http port must be positive")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return errors.New("chart dimensions must be positive")
	}
	switch c.Store.Backend {
	case BackendMemory, BackendBadger:
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendInflux:
		if c.Store.Influx.URL == "" || c.Store.Influx.Bucket == "" {
			return errors.New("INFLUXDB_URL and INFLUXDB_BUCKET are required for the influx backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.HTTP.Port)
}
