package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the purifier collector.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Device    DeviceConfig    `yaml:"device"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Timescale TimescaleConfig `yaml:"timescale"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	DynamoDB  DynamoDBConfig  `yaml:"dynamodb"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CollectorConfig controls the polling loop.
type CollectorConfig struct {
	// Interval is the sleep between clean passes.
	Interval time.Duration `yaml:"interval"`

	// ResponseTimeout bounds how long a device session waits for sensor data.
	// Zero means "use Interval".
	ResponseTimeout time.Duration `yaml:"response_timeout"`

	// ManifestTTL allows the device manifest to be reused across passes.
	// Zero fetches it on every pass.
	ManifestTTL time.Duration `yaml:"manifest_ttl"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig bounds the accelerated re-pass after partial failure.
type RetryConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	// MaxAttempts is the number of consecutive accelerated passes before
	// the collector falls back to the normal interval.
	MaxAttempts int `yaml:"max_attempts"`
}

// CloudConfig contains vendor cloud API settings.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`
	Country string `yaml:"country"`

	// Auth selects the login flow: "otp" (bearer token) or "basic".
	Auth    string        `yaml:"auth"`
	Timeout time.Duration `yaml:"timeout"`
}

// SecretsConfig selects and configures the secret store backend.
type SecretsConfig struct {
	// Backend is one of "file", "nats" or "memory".
	Backend string            `yaml:"backend"`
	File    FileSecretsConfig `yaml:"file"`
	NATS    NATSSecretsConfig `yaml:"nats"`
}

// FileSecretsConfig configures the YAML file secret store.
type FileSecretsConfig struct {
	Path string `yaml:"path"`

	// IdentityFile is an optional age identity. When set the file is encrypted at rest.
	IdentityFile string `yaml:"identity_file"`
}

// NATSSecretsConfig configures the JetStream key-value secret store.
type NATSSecretsConfig struct {
	URL       string        `yaml:"url"`
	Bucket    string        `yaml:"bucket"`
	CredsFile string        `yaml:"creds_file"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DiscoveryConfig controls how device LAN addresses are resolved.
type DiscoveryConfig struct {
	// Strategy is one of "static", "service", "mdns" or "hybrid".
	Strategy   string        `yaml:"strategy"`
	Timeout    time.Duration `yaml:"timeout"`
	ServiceURL string        `yaml:"service_url"`
	MDNSSuffix string        `yaml:"mdns_suffix"`
}

// DeviceConfig contains device-local broker settings.
type DeviceConfig struct {
	Port           int           `yaml:"port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// AdvancedProductTypes lists product types carrying the separate
	// PM2.5/PM10/VOC/NO2 sensor set.
	AdvancedProductTypes []string `yaml:"advanced_product_types"`
}

// StorageConfig selects the sample store.
type StorageConfig struct {
	// Backend is one of "sqlite", "timescale", "influxdb" or "dynamodb".
	Backend string `yaml:"backend"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TimescaleConfig contains PostgreSQL/TimescaleDB settings.
type TimescaleConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// DynamoDBConfig contains DynamoDB document store settings.
type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	// Retention sets the item expiry attribute. Zero disables expiry.
	Retention time.Duration `yaml:"retention"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: PURIFIER_SECTION_KEY
// For example: PURIFIER_DATABASE_PATH, PURIFIER_INFLUXDB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultAdvancedProductTypes are the product types shipped with the
// advanced sensor set.
var DefaultAdvancedProductTypes = []string{
	"438", "438E", "438K",
	"520",
	"527", "527E", "527K",
	"358", "358E", "358K",
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			Interval: 5 * time.Minute,
			Retry: RetryConfig{
				InitialDelay: 5 * time.Second,
				MaxDelay:     2 * time.Minute,
				MaxAttempts:  5,
			},
		},
		Cloud: CloudConfig{
			BaseURL: "https://appapi.cp.dyson.com",
			Country: "GB",
			Auth:    "otp",
			Timeout: 30 * time.Second,
		},
		Secrets: SecretsConfig{
			Backend: "file",
			File: FileSecretsConfig{
				Path: "./data/secrets.yaml",
			},
			NATS: NATSSecretsConfig{
				Bucket:  "purifier-secrets",
				Timeout: 5 * time.Second,
			},
		},
		Discovery: DiscoveryConfig{
			Strategy:   "static",
			Timeout:    5 * time.Second,
			MDNSSuffix: ".local",
		},
		Device: DeviceConfig{
			Port:                 1883,
			ConnectTimeout:       10 * time.Second,
			AdvancedProductTypes: slices.Clone(DefaultAdvancedProductTypes),
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Database: DatabaseConfig{
			Path:        "./data/purifier.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Timescale: TimescaleConfig{
			MaxConns: 4,
		},
		InfluxDB: InfluxDBConfig{
			Measurement: "purifier",
		},
		DynamoDB: DynamoDBConfig{
			Table:     "purifier-samples",
			Retention: 7 * 24 * time.Hour,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PURIFIER_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Collector
	if v := os.Getenv("PURIFIER_COLLECTOR_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Collector.Interval = d
		}
	}

	// Cloud
	if v := os.Getenv("PURIFIER_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := os.Getenv("PURIFIER_CLOUD_AUTH"); v != "" {
		cfg.Cloud.Auth = v
	}

	// Secrets
	if v := os.Getenv("PURIFIER_SECRETS_BACKEND"); v != "" {
		cfg.Secrets.Backend = v
	}
	if v := os.Getenv("PURIFIER_SECRETS_FILE_PATH"); v != "" {
		cfg.Secrets.File.Path = v
	}
	if v := os.Getenv("PURIFIER_SECRETS_NATS_URL"); v != "" {
		cfg.Secrets.NATS.URL = v
	}

	// Discovery
	if v := os.Getenv("PURIFIER_DISCOVERY_STRATEGY"); v != "" {
		cfg.Discovery.Strategy = v
	}
	if v := os.Getenv("PURIFIER_DISCOVERY_SERVICE_URL"); v != "" {
		cfg.Discovery.ServiceURL = v
	}

	// Device
	if v := os.Getenv("PURIFIER_DEVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Device.Port = port
		}
	}

	// Storage
	if v := os.Getenv("PURIFIER_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("PURIFIER_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PURIFIER_TIMESCALE_DSN"); v != "" {
		cfg.Timescale.DSN = v
	}
	if v := os.Getenv("PURIFIER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("PURIFIER_DYNAMODB_ENDPOINT"); v != "" {
		cfg.DynamoDB.Endpoint = v
	}

	// API
	if v := os.Getenv("PURIFIER_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Logging
	if v := os.Getenv("PURIFIER_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Collector validation
	if c.Collector.Interval <= 0 {
		errs = append(errs, "collector.interval must be positive")
	}
	if c.Collector.ResponseTimeout < 0 {
		errs = append(errs, "collector.response_timeout cannot be negative")
	}
	if c.Collector.Retry.MaxAttempts < 0 {
		errs = append(errs, "collector.retry.max_attempts cannot be negative")
	}
	if c.Collector.Retry.InitialDelay <= 0 {
		errs = append(errs, "collector.retry.initial_delay must be positive")
	}
	if c.Collector.Retry.MaxDelay < c.Collector.Retry.InitialDelay {
		errs = append(errs, "collector.retry.max_delay must not be less than initial_delay")
	}

	// Cloud validation
	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}
	if c.Cloud.Auth != "otp" && c.Cloud.Auth != "basic" {
		errs = append(errs, "cloud.auth must be \"otp\" or \"basic\"")
	}

	// Secrets validation
	switch c.Secrets.Backend {
	case "file":
		if c.Secrets.File.Path == "" {
			errs = append(errs, "secrets.file.path is required for the file backend")
		}
	case "nats":
		if c.Secrets.NATS.URL == "" || c.Secrets.NATS.Bucket == "" {
			errs = append(errs, "secrets.nats.url and secrets.nats.bucket are required for the nats backend")
		}
	case "memory":
	default:
		errs = append(errs, "secrets.backend must be one of file, nats, memory")
	}

	// Discovery validation
	switch c.Discovery.Strategy {
	case "static", "mdns":
	case "service", "hybrid":
		if c.Discovery.ServiceURL == "" {
			errs = append(errs, "discovery.service_url is required for the "+c.Discovery.Strategy+" strategy")
		}
	default:
		errs = append(errs, "discovery.strategy must be one of static, service, mdns, hybrid")
	}
	if c.Discovery.Timeout <= 0 {
		errs = append(errs, "discovery.timeout must be positive")
	}

	// Device validation
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		errs = append(errs, "device.port must be between 1 and 65535")
	}

	// Storage validation
	switch c.Storage.Backend {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case "timescale":
		if c.Timescale.DSN == "" {
			errs = append(errs, "timescale.dsn is required for the timescale backend")
		}
	case "influxdb":
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required for the influxdb backend")
		}
	case "dynamodb":
		if c.DynamoDB.Table == "" {
			errs = append(errs, "dynamodb.table is required for the dynamodb backend")
		}
	default:
		errs = append(errs, "storage.backend must be one of sqlite, timescale, influxdb, dynamodb")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// EffectiveResponseTimeout returns the session wait bound, falling back to
// the polling interval when no explicit timeout is configured.
func (c *CollectorConfig) EffectiveResponseTimeout() time.Duration {
	if c.ResponseTimeout > 0 {
		return c.ResponseTimeout
	}
	return c.Interval
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
