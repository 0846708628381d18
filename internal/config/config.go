package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the config file written by init and read by default.
const FileName = "glengine.yaml"

// Environment overrides, applied by ApplyEnv.
const (
	EnvDSN       = "GLENGINE_DSN"
	EnvRedisAddr = "GLENGINE_REDIS_ADDR"
	EnvLogLevel  = "GLENGINE_LOG_LEVEL"
)

// Row-source drivers.
const (
	DriverCSV      = "csv"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config represents the top-level glengine.yaml configuration.
type Config struct {
	Source          SourceConfig `yaml:"source"`
	TenantFiltering string       `yaml:"tenant_filtering" validate:"required,oneof=strict fallback_to_global"`
	DefaultTenant   string       `yaml:"default_tenant"`
	GroupedTotals   *bool        `yaml:"grouped_totals,omitempty"`
	Cache           CacheConfig  `yaml:"cache"`
	Server          ServerConfig `yaml:"server"`
	Log             LogConfig    `yaml:"log"`
}

// SourceConfig selects where ledger rows come from. Dir is used by the csv
// driver and DSN by the SQL drivers.
type SourceConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=csv postgres mysql"`
	DSN    string `yaml:"dsn,omitempty" validate:"required_unless=Driver csv"`
	Dir    string `yaml:"dir,omitempty" validate:"required_if=Driver csv"`
}

// CacheConfig controls the Redis report cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr,omitempty" validate:"required_if=Enabled true"`
	TTL     time.Duration `yaml:"ttl,omitempty"`
	Prefix  string        `yaml:"prefix,omitempty"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// UseGroupedTotals reports whether balances may use the SQL GROUP BY path.
// Unset means yes.
func (c *Config) UseGroupedTotals() bool {
	return c.GroupedTotals == nil || *c.GroupedTotals
}

// Load reads a glengine.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for a new CSV-backed project.
func Default(tenant string) *Config {
	return &Config{
		Source: SourceConfig{
			Driver: DriverCSV,
			Dir:    "data",
		},
		TenantFiltering: "strict",
		DefaultTenant:   tenant,
		Cache: CacheConfig{
			Addr:   "localhost:6379",
			TTL:    2 * time.Minute,
			Prefix: "glengine",
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDSN); v != "" {
		c.Source.DSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

var validate = validator.New()

// Validate checks the config against its field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
