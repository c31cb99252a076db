package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
collector:
  interval: 10m
  response_timeout: 45s
  retry:
    initial_delay: 2s
    max_delay: 1m
    max_attempts: 3
cloud:
  auth: basic
secrets:
  backend: memory
discovery:
  strategy: service
  service_url: "http://discovery.lan:9000"
storage:
  backend: sqlite
database:
  path: "/tmp/test.db"
device:
  advanced_product_types: ["438", "520"]
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Collector.Interval != 10*time.Minute {
		t.Errorf("Collector.Interval = %v, want 10m", cfg.Collector.Interval)
	}
	if cfg.Collector.EffectiveResponseTimeout() != 45*time.Second {
		t.Errorf("EffectiveResponseTimeout() = %v, want 45s", cfg.Collector.EffectiveResponseTimeout())
	}
	if cfg.Collector.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want 3", cfg.Collector.Retry.MaxAttempts)
	}
	if cfg.Cloud.Auth != "basic" {
		t.Errorf("Cloud.Auth = %q, want basic", cfg.Cloud.Auth)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if len(cfg.Device.AdvancedProductTypes) != 2 {
		t.Errorf("AdvancedProductTypes = %v, want 2 entries", cfg.Device.AdvancedProductTypes)
	}
	// Untouched defaults survive.
	if cfg.Device.Port != 1883 {
		t.Errorf("Device.Port = %d, want 1883", cfg.Device.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
storage:
  backend: cassandra
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for unknown storage backend, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Collector.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "negative retry ceiling",
			mutate:  func(c *Config) { c.Collector.Retry.MaxAttempts = -1 },
			wantErr: true,
		},
		{
			name: "max delay below initial delay",
			mutate: func(c *Config) {
				c.Collector.Retry.InitialDelay = time.Minute
				c.Collector.Retry.MaxDelay = time.Second
			},
			wantErr: true,
		},
		{
			name:    "unknown auth flow",
			mutate:  func(c *Config) { c.Cloud.Auth = "saml" },
			wantErr: true,
		},
		{
			name:    "nats backend without url",
			mutate:  func(c *Config) { c.Secrets.Backend = "nats" },
			wantErr: true,
		},
		{
			name:    "hybrid discovery without service url",
			mutate:  func(c *Config) { c.Discovery.Strategy = "hybrid" },
			wantErr: true,
		},
		{
			name:    "mdns discovery needs nothing else",
			mutate:  func(c *Config) { c.Discovery.Strategy = "mdns" },
			wantErr: false,
		},
		{
			name:    "invalid device port",
			mutate:  func(c *Config) { c.Device.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "timescale without dsn",
			mutate:  func(c *Config) { c.Storage.Backend = "timescale" },
			wantErr: true,
		},
		{
			name: "influxdb fully configured",
			mutate: func(c *Config) {
				c.Storage.Backend = "influxdb"
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Org = "home"
				c.InfluxDB.Bucket = "air"
			},
			wantErr: false,
		},
		{
			name: "disabled api ignores port",
			mutate: func(c *Config) {
				c.API.Enabled = false
				c.API.Port = 0
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCollectorConfig_EffectiveResponseTimeout(t *testing.T) {
	c := CollectorConfig{Interval: 5 * time.Minute}
	if got := c.EffectiveResponseTimeout(); got != 5*time.Minute {
		t.Errorf("EffectiveResponseTimeout() = %v, want interval fallback", got)
	}

	c.ResponseTimeout = 30 * time.Second
	if got := c.EffectiveResponseTimeout(); got != 30*time.Second {
		t.Errorf("EffectiveResponseTimeout() = %v, want 30s", got)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{Read: 10, Write: 20, Idle: 30},
		},
	}

	if got := cfg.GetReadTimeout(); got != 10*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 20*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 20s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 30*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 30s", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PURIFIER_COLLECTOR_INTERVAL", "15m")
	t.Setenv("PURIFIER_STORAGE_BACKEND", "timescale")
	t.Setenv("PURIFIER_TIMESCALE_DSN", "postgres://collector@localhost/air")
	t.Setenv("PURIFIER_DEVICE_PORT", "8883")
	t.Setenv("PURIFIER_INFLUXDB_TOKEN", "secret-token")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Collector.Interval != 15*time.Minute {
		t.Errorf("Collector.Interval = %v, want 15m", cfg.Collector.Interval)
	}
	if cfg.Storage.Backend != "timescale" {
		t.Errorf("Storage.Backend = %q, want timescale", cfg.Storage.Backend)
	}
	if cfg.Timescale.DSN != "postgres://collector@localhost/air" {
		t.Errorf("Timescale.DSN = %q", cfg.Timescale.DSN)
	}
	if cfg.Device.Port != 8883 {
		t.Errorf("Device.Port = %d, want 8883", cfg.Device.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q", cfg.InfluxDB.Token)
	}
}

func TestApplyEnvOverrides_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("PURIFIER_COLLECTOR_INTERVAL", "soon")
	t.Setenv("PURIFIER_DEVICE_PORT", "mqtt")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Collector.Interval != 5*time.Minute {
		t.Errorf("Collector.Interval = %v, want default", cfg.Collector.Interval)
	}
	if cfg.Device.Port != 1883 {
		t.Errorf("Device.Port = %d, want default", cfg.Device.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Cloud.BaseURL != "https://appapi.cp.dyson.com" {
		t.Errorf("Cloud.BaseURL = %q", cfg.Cloud.BaseURL)
	}
	if cfg.Cloud.Auth != "otp" {
		t.Errorf("Cloud.Auth = %q, want otp", cfg.Cloud.Auth)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}

	// Mutating the default slice must not leak into the package variable.
	cfg.Device.AdvancedProductTypes[0] = "changed"
	if DefaultAdvancedProductTypes[0] != "438" {
		t.Error("defaultConfig() shares its product type slice with DefaultAdvancedProductTypes")
	}
}
