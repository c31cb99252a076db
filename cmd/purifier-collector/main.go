// Purifier Collector - air-purifier telemetry collector
//
// Periodically authenticates against the vendor cloud, fetches the device
// manifest, locates each purifier on the LAN, reads its sensors over the
// device-local MQTT broker and persists one sample per device per pass.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nerrad567/purifier-collector/internal/api"
	"github.com/nerrad567/purifier-collector/internal/cloud"
	"github.com/nerrad567/purifier-collector/internal/collector"
	"github.com/nerrad567/purifier-collector/internal/device"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/config"
	"github.com/nerrad567/purifier-collector/internal/infrastructure/logging"
	"github.com/nerrad567/purifier-collector/internal/locator"
	"github.com/nerrad567/purifier-collector/internal/sample"
	"github.com/nerrad567/purifier-collector/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	configPath  string
	once        bool
	migrateDown bool
	help        bool
}

func parseFlags(args []string) (options, *pflag.FlagSet, error) {
	var opts options
	flagSet := pflag.NewFlagSet("purifier-collector", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (default: $PURIFIER_CONFIG or "+defaultConfigPath+")")
	flagSet.BoolVar(&opts.once, "once", false, "run a single pass and exit")
	flagSet.BoolVar(&opts.migrateDown, "migrate-down", false, "roll back the latest SQLite migration and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		return opts, flagSet, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, flagSet, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.configPath == "" {
		opts.configPath = getConfigPath()
	}
	return opts, flagSet, nil
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	opts, flagSet, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) || opts.help {
		fmt.Fprintln(os.Stderr, "Usage: purifier-collector [flags]")
		flagSet.PrintDefaults()
		return nil
	}
	if err != nil {
		return err
	}

	log := logging.Default()
	log.Info("starting purifier collector",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", opts.configPath,
		"storage", cfg.Storage.Backend,
		"discovery", cfg.Discovery.Strategy,
		"auth", cfg.Cloud.Auth,
	)

	if opts.migrateDown {
		return migrateDown(ctx, cfg, log)
	}

	var closers closeStack
	defer closers.closeAll(log)

	store, err := openSecrets(ctx, cfg.Secrets)
	if err != nil {
		return fmt.Errorf("opening secret store: %w", err)
	}
	closers.push("secret store", store.close)

	backend, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	closers.push("sample storage", backend.close)

	discoverer, err := newDiscoverer(cfg.Discovery, store.Store)
	if err != nil {
		return fmt.Errorf("configuring discovery: %w", err)
	}
	closers.push("discovery", discoverer.close)

	client := cloud.NewClient(cfg.Cloud.BaseURL, cfg.Cloud.Country, cfg.Cloud.Timeout)
	auth := newAuthenticator(cfg.Cloud, client, store.Store, log.With("component", "cloud"))

	loc := locator.New(discoverer, cfg.Discovery.Timeout)
	loc.SetLogger(log.With("component", "locator"))

	sess := session.New(
		session.MQTTDialer{ConnectTimeout: cfg.Device.ConnectTimeout, Logger: log.With("component", "mqtt")},
		session.Config{Port: cfg.Device.Port, ResponseTimeout: cfg.Collector.EffectiveResponseTimeout()},
	)
	sess.SetLogger(log.With("component", "session"))

	recorder := sample.NewRecorder(backend.writer)
	recorder.SetLogger(log.With("component", "recorder"))

	scheduler := collector.New(
		auth,
		cloud.NewManifestFetcher(client),
		loc,
		sess,
		recorder,
		device.NewClassifier(cfg.Device.AdvancedProductTypes),
		collector.Config{
			Interval:          cfg.Collector.Interval,
			ManifestTTL:       cfg.Collector.ManifestTTL,
			RetryInitialDelay: cfg.Collector.Retry.InitialDelay,
			RetryMaxDelay:     cfg.Collector.Retry.MaxDelay,
			RetryMaxAttempts:  cfg.Collector.Retry.MaxAttempts,
		},
	)
	scheduler.SetLogger(log.With("component", "collector"))

	if opts.once {
		report := scheduler.RunCycle(ctx)
		log.Info("single pass finished",
			"sampled", report.Sampled,
			"persisted", report.Persisted,
			"unresolved", report.Unresolved,
			"failed", report.Failed,
		)
		return report.Err
	}

	if cfg.API.Enabled {
		if backend.reader == nil {
			log.Warn("API disabled: storage backend does not support queries", "storage", cfg.Storage.Backend)
		} else {
			srv, apiErr := api.New(api.Deps{
				Config:  cfg.API,
				Logger:  log.With("component", "api"),
				Reader:  backend.reader,
				Stats:   scheduler,
				Version: version,
			})
			if apiErr != nil {
				return fmt.Errorf("creating API server: %w", apiErr)
			}
			if apiErr = srv.Start(ctx); apiErr != nil {
				return fmt.Errorf("starting API server: %w", apiErr)
			}
			closers.push("API server", srv.Close)
		}
	}

	log.Info("collector running",
		"interval", cfg.Collector.Interval,
		"retry_max_attempts", cfg.Collector.Retry.MaxAttempts,
	)
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the configuration file path.
//
// Priority:
//  1. PURIFIER_CONFIG environment variable
//  2. Default path (configs/config.yaml)
func getConfigPath() string {
	if path := os.Getenv("PURIFIER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
