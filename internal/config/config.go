// Package config provides configuration loading for the telemetry rule
// service and the bundled storage adapter. Configuration comes from a
// YAML file with defaults applied for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageMode selects between in-memory collaborators and real backends.
type StorageMode string

const (
	// StorageModeMemory uses in-memory implementations for the rule
	// store, the alarms service and the event queue.
	StorageModeMemory StorageMode = "memory"
	// StorageModeStorage uses real backends: the storage adapter over
	// HTTP, PostgreSQL alarms and Kafka events.
	StorageModeStorage StorageMode = "storage"
)

// IsValid returns true if the storage mode is valid.
func (m StorageMode) IsValid() bool {
	return m == StorageModeMemory || m == StorageModeStorage
}

// Config represents the complete application configuration.
type Config struct {
	Storage        StorageConfig        `yaml:"storage"`
	Server         ServerConfig         `yaml:"server"`
	StorageAdapter StorageAdapterConfig `yaml:"storage_adapter"`
	AdapterServer  AdapterServerConfig  `yaml:"adapter_server"`
	Postgres       PostgresConfig       `yaml:"postgres"`
	Redis          RedisConfig          `yaml:"redis"`
	Kafka          KafkaConfig          `yaml:"kafka"`
	Diagnostics    DiagnosticsConfig    `yaml:"diagnostics"`
	Logger         LoggerConfig         `yaml:"logger"`
}

// StorageConfig holds the storage mode configuration.
type StorageConfig struct {
	Mode StorageMode `yaml:"mode"`
}

// UseMemory returns true if in-memory collaborators should be used.
func (c *StorageConfig) UseMemory() bool {
	return c.Mode == StorageModeMemory
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Address returns the full server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageAdapterConfig holds the storage adapter client settings.
type StorageAdapterConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AdapterServerBackend selects the document store behind the bundled
// storage adapter service.
type AdapterServerBackend string

const (
	AdapterBackendMemory AdapterServerBackend = "memory"
	AdapterBackendRedis  AdapterServerBackend = "redis"
)

// AdapterServerConfig holds settings for the bundled storage adapter
// service (cmd/storageadapter).
type AdapterServerConfig struct {
	Host    string               `yaml:"host"`
	Port    int                  `yaml:"port"`
	Backend AdapterServerBackend `yaml:"backend"`
}

// Address returns the full adapter server address in host:port format.
func (c *AdapterServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PostgresConfig holds PostgreSQL connection settings for the alarms
// store.
type PostgresConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int32  `yaml:"max_open_conns"`
	MaxIdleConns int32  `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis connection settings for the adapter's
// document store backend.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RedisAddr returns the Redis address in host:port format.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig holds Kafka connection and topic settings for the rule
// event stream.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	Topic         string   `yaml:"topic"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// DiagnosticsConfig holds the diagnostics sink settings. An empty URL
// disables emission entirely.
type DiagnosticsConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads configuration from the specified YAML file path.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults sets sensible default values for configuration fields
// that are not explicitly set in the config file.
func applyDefaults(cfg *Config) {
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = StorageModeMemory
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9004
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}

	if cfg.StorageAdapter.URL == "" {
		cfg.StorageAdapter.URL = "http://localhost:9022"
	}
	if cfg.StorageAdapter.Timeout == 0 {
		cfg.StorageAdapter.Timeout = 30 * time.Second
	}

	if cfg.AdapterServer.Host == "" {
		cfg.AdapterServer.Host = "0.0.0.0"
	}
	if cfg.AdapterServer.Port == 0 {
		cfg.AdapterServer.Port = 9022
	}
	if cfg.AdapterServer.Backend == "" {
		cfg.AdapterServer.Backend = AdapterBackendMemory
	}

	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 25
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = 5
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{"localhost:9092"}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "rule-events"
	}
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = "telemetry-notification"
	}

	if cfg.Diagnostics.Timeout == 0 {
		cfg.Diagnostics.Timeout = 10 * time.Second
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
}
