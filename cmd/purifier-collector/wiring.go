package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/purifier-collector/internal/cloud"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/config"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/database"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/influxdb"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/logging"
	"github.com/nerrad567/purifier-collector/internal/locator"
	"github.com/nerrad567/purifier-collector/internal/sample"
	"github.com/nerrad567/purifier-collector/internal/secrets"
	"github.com/nerrad567/purifier-collector/migrations"
)

// closeStack releases resources in reverse order of acquisition.
type closeStack struct {
	entries []closeEntry
}

type closeEntry struct {
	name string
	fn   func() error
}

func (c *closeStack) push(name string, fn func() error) {
	if fn != nil {
		c.entries = append(c.entries, closeEntry{name: name, fn: fn})
	}
}

func (c *closeStack) closeAll(log *logging.Logger) {
	for i := len(c.entries) - 1; i >= 0; i-- {
		e := c.entries[i]
		log.Info("closing " + e.name)
		if err := e.fn(); err != nil {
			log.Error("error closing "+e.name, "error", err)
		}
	}
	c.entries = nil
}

// secretStore pairs a store with its release function.
type secretStore struct {
	secrets.Store
	close func() error
}

func openSecrets(ctx context.Context, cfg config.SecretsConfig) (secretStore, error) {
	switch cfg.Backend {
	case "file":
		fs, err := secrets.NewFileStore(cfg.File.Path, cfg.File.IdentityFile)
		if err != nil {
			return secretStore{}, err
		}
		return secretStore{Store: fs}, nil
	case "nats":
		ns, err := secrets.NewNATSStore(ctx, secrets.NATSOptions{
			URL:       cfg.NATS.URL,
			Bucket:    cfg.NATS.Bucket,
			CredsFile: cfg.NATS.CredsFile,
			Timeout:   cfg.NATS.Timeout,
		})
		if err != nil {
			return secretStore{}, err
		}
		return secretStore{Store: ns, close: ns.Close}, nil
	case "memory":
		return secretStore{Store: secrets.NewMemoryStore(nil)}, nil
	default:
		return secretStore{}, fmt.Errorf("unknown secrets backend %q", cfg.Backend)
	}
}

// storage is the configured sample backend. reader is nil for write-only
// backends.
type storage struct {
	writer sample.Writer
	reader sample.Reader
	close  func() error
}

func openStorage(ctx context.Context, cfg *config.Config, log *logging.Logger) (storage, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return storage{}, err
		}
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			_ = db.Close()
			return storage{}, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database ready", "path", db.Path())
		st := sample.NewSQLiteStore(db)
		return storage{writer: st, reader: st, close: db.Close}, nil

	case "timescale":
		pool, err := sample.NewTimescalePool(ctx, cfg.Timescale)
		if err != nil {
			return storage{}, err
		}
		st := sample.NewTimescaleStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return storage{}, err
		}
		log.Info("timescale ready", "max_conns", cfg.Timescale.MaxConns)
		return storage{writer: st, reader: st, close: func() error { pool.Close(); return nil }}, nil

	case "influxdb":
		client, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return storage{}, err
		}
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		return storage{writer: sample.NewInfluxStore(client), close: client.Close}, nil

	case "dynamodb":
		client, err := sample.NewDynamoClient(ctx, cfg.DynamoDB)
		if err != nil {
			return storage{}, err
		}
		log.Info("DynamoDB configured", "table", cfg.DynamoDB.Table, "region", cfg.DynamoDB.Region)
		return storage{writer: sample.NewDynamoStore(client, cfg.DynamoDB)}, nil

	default:
		return storage{}, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// migrateDown reverts the most recent migration of the SQLite store.
func migrateDown(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	if cfg.Storage.Backend != "sqlite" {
		return fmt.Errorf("--migrate-down needs the sqlite storage backend, have %q", cfg.Storage.Backend)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-write work is committed before close

	if err := db.MigrateDown(ctx, migrations.FS); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}

	applied, pending, err := db.MigrationStatus(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	current := "none"
	if len(applied) > 0 {
		current = applied[len(applied)-1].Version
	}
	log.Info("migration rolled back", "path", db.Path(), "current", current, "pending", len(pending))
	return nil
}

// discoverer wraps the configured strategy with its release function.
type discoverer struct {
	locator.Discoverer
	close func() error
}

func newDiscoverer(cfg config.DiscoveryConfig, store secrets.Store) (discoverer, error) {
	switch cfg.Strategy {
	case "static":
		return discoverer{Discoverer: locator.NewStaticDiscoverer(store)}, nil
	case "service":
		return discoverer{Discoverer: locator.NewServiceDiscoverer(cfg.ServiceURL)}, nil
	case "mdns":
		m := locator.NewMDNSDiscoverer(cfg.MDNSSuffix)
		return discoverer{Discoverer: m, close: m.Close}, nil
	case "hybrid":
		m := locator.NewMDNSDiscoverer(cfg.MDNSSuffix)
		chain := locator.NewChainDiscoverer(
			locator.NewStaticDiscoverer(store),
			locator.NewServiceDiscoverer(cfg.ServiceURL),
			m,
		)
		return discoverer{Discoverer: chain, close: m.Close}, nil
	default:
		return discoverer{}, fmt.Errorf("unknown discovery strategy %q", cfg.Strategy)
	}
}

func newAuthenticator(cfg config.CloudConfig, client *cloud.Client, store secrets.Store, log *logging.Logger) cloud.Authenticator {
	if cfg.Auth == "basic" {
		a := cloud.NewBasicAuthenticator(client, store)
		a.SetLogger(log)
		return a
	}
	a := cloud.NewOTPAuthenticator(client, store)
	a.SetLogger(log)
	return a
}
