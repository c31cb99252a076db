package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/purifier-collector/internal/infrastructure/config"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/database"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/logging"
	"github.com/nerrad567/purifier-collector/internal/secrets"
	"github.com/nerrad567/purifier-collector/migrations"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseFlags(t *testing.T) {
	t.Setenv("PURIFIER_CONFIG", "")

	opts, _, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigPath, opts.configPath)
	assert.False(t, opts.once)

	opts, _, err = parseFlags([]string{"-c", "/etc/purifier.yaml", "--once"})
	require.NoError(t, err)
	assert.Equal(t, "/etc/purifier.yaml", opts.configPath)
	assert.True(t, opts.once)

	_, _, err = parseFlags([]string{"stray"})
	assert.Error(t, err)
}

func TestGetConfigPath_Env(t *testing.T) {
	t.Setenv("PURIFIER_CONFIG", "/srv/config.yaml")
	assert.Equal(t, "/srv/config.yaml", getConfigPath())
}

func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, []string{"--config", "/nonexistent/path/config.yaml"})
	assert.Error(t, err)
}

func TestRun_Help(t *testing.T) {
	assert.NoError(t, run(context.Background(), []string{"--help"}))
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
collector:
  interval: 1h
secrets:
  backend: memory
storage:
  backend: sqlite
database:
  path: "`+filepath.Join(dir, "purifier.db")+`"
cloud:
  base_url: "http://127.0.0.1:1"
  timeout: 1s
api:
  enabled: false
logging:
  level: error
`)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, []string{"--config", path}) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
	_, statErr := os.Stat(filepath.Join(dir, "purifier.db"))
	assert.NoError(t, statErr, "sqlite store created and migrated")
}

func TestOpenSecrets(t *testing.T) {
	store, err := openSecrets(context.Background(), config.SecretsConfig{Backend: "memory"})
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "k", "v"))

	path := filepath.Join(t.TempDir(), "secrets.yaml")
	store, err = openSecrets(context.Background(), config.SecretsConfig{
		Backend: "file",
		File:    config.FileSecretsConfig{Path: path},
	})
	require.NoError(t, err)
	assert.Nil(t, store.close)

	_, err = openSecrets(context.Background(), config.SecretsConfig{Backend: "vault"})
	assert.Error(t, err)
}

func TestNewDiscoverer(t *testing.T) {
	store := secrets.NewMemoryStore(nil)
	for _, strategy := range []string{"static", "service", "mdns", "hybrid"} {
		t.Run(strategy, func(t *testing.T) {
			d, err := newDiscoverer(config.DiscoveryConfig{
				Strategy:   strategy,
				ServiceURL: "http://127.0.0.1:9000",
				MDNSSuffix: ".local",
			}, store)
			require.NoError(t, err)
			assert.NotNil(t, d.Discoverer)
			if d.close != nil {
				assert.NoError(t, d.close())
			}
		})
	}

	_, err := newDiscoverer(config.DiscoveryConfig{Strategy: "carrier-pigeon"}, store)
	assert.Error(t, err)
}

func TestOpenStorage_SQLiteHasReader(t *testing.T) {
	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: "sqlite"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "s.db"), WALMode: true, BusyTimeout: 5},
	}
	st, err := openStorage(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer st.close()

	assert.NotNil(t, st.writer)
	assert.NotNil(t, st.reader)
}

func TestCloseStack_ReverseOrder(t *testing.T) {
	var order []string
	var c closeStack
	c.push("first", func() error { order = append(order, "first"); return nil })
	c.push("second", func() error { order = append(order, "second"); return nil })
	c.push("skipped", nil)

	c.closeAll(logging.Discard())

	assert.Equal(t, []string{"second", "first"}, order)
}

func TestMigrateDown(t *testing.T) {
	cfg := &config.Config{
		Storage:  config.StorageConfig{Backend: "sqlite"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "s.db"), WALMode: true, BusyTimeout: 5},
	}
	st, err := openStorage(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, st.close())

	require.NoError(t, migrateDown(context.Background(), cfg, logging.Discard()))

	db, err := database.Open(context.Background(), cfg.Database)
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // Test cleanup
	applied, pending, err := db.MigrationStatus(context.Background(), migrations.FS)
	require.NoError(t, err)
	assert.Len(t, applied, 1)
	assert.Len(t, pending, 1)
}

func TestMigrateDown_RequiresSQLite(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "influxdb"}}
	assert.Error(t, migrateDown(context.Background(), cfg, logging.Discard()))
}

func TestParseFlags_MigrateDown(t *testing.T) {
	opts, _, err := parseFlags([]string{"--migrate-down"})
	require.NoError(t, err)
	assert.True(t, opts.migrateDown)
}
