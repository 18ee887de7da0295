// Ingest Relay - telemetry authentication and identity resolution.
//
// The relay subscribes to the public ingest broker, validates each
// message's bearer token, resolves the sender's durable application
// id, sanitizes the payload, and republishes the result on the
// authenticated output broker. Newly observed metrics are registered
// in the identity store and the time-series registry as they appear.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/fathomgrid/ingest-relay/migrations"

	"github.com/fathomgrid/ingest-relay/internal/api"
	"github.com/fathomgrid/ingest-relay/internal/auth"
	"github.com/fathomgrid/ingest-relay/internal/identity"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/config"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/database"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/logging"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/mqtt"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/tsdb"
	"github.com/fathomgrid/ingest-relay/internal/pipeline"
	"github.com/fathomgrid/ingest-relay/internal/transform"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so exit
// codes are handled in one place.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ingest relay", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, cfg.Service.Name, version)
	log.Info("logger initialised", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	// Open identity store
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to the public ingest broker
	ingest, err := mqtt.Connect(cfg.Ingest)
	if err != nil {
		return fmt.Errorf("connecting to ingest broker: %w", err)
	}
	defer func() {
		log.Info("disconnecting from ingest broker")
		if closeErr := ingest.Close(); closeErr != nil {
			log.Error("error closing ingest broker", "error", closeErr)
		}
	}()
	ingest.SetLogger(log.With("broker", "ingest"))
	log.Info("ingest broker connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Ingest.Broker.Host, cfg.Ingest.Broker.Port),
		"client_id", cfg.Ingest.Broker.ClientID,
	)

	// Connect to the authenticated output broker
	output, err := mqtt.Connect(cfg.Output)
	if err != nil {
		return fmt.Errorf("connecting to output broker: %w", err)
	}
	defer func() {
		log.Info("disconnecting from output broker")
		if closeErr := output.Close(); closeErr != nil {
			log.Error("error closing output broker", "error", closeErr)
		}
	}()
	output.SetLogger(log.With("broker", "output"))
	log.Info("output broker connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Output.Broker.Host, cfg.Output.Broker.Port),
		"client_id", cfg.Output.Broker.ClientID,
	)

	// Connect to the time-series registry
	registry, err := tsdb.Connect(ctx, cfg.Registry)
	if err != nil {
		return fmt.Errorf("connecting to time-series registry: %w", err)
	}
	defer registry.Close() //nolint:errcheck // stateless client
	log.Info("time-series registry connected", "url", cfg.Registry.URL)

	// Wire the pipeline
	appCache := identity.NewCache(identity.DefaultTTL)
	metricCache := identity.NewCache(identity.DefaultTTL)
	resolver := identity.NewResolver(appCache, identity.NewAppStore(db.DB))
	registrar := identity.NewRegistrar(metricCache, identity.NewMetricStore(db.DB), registry)

	pipe := pipeline.New(pipeline.Options{
		Validator:    auth.NewJWTValidator(cfg.Auth),
		Resolver:     resolver,
		Transformers: transform.DefaultRegistry(cfg.Topics.Ingest, cfg.Topics.IngestLegacy),
		Publisher:    output,
		Registrar:    registrar,
		OutputTopic:  cfg.Topics.Output,
		Logger:       log,
	})

	// Subscribe to the ingest topics
	qos := byte(cfg.Ingest.QoS) //nolint:gosec // validated 0-2 in config
	if err := ingest.Subscribe(cfg.Topics.Ingest, qos, pipe.Handle); err != nil {
		return fmt.Errorf("subscribing to ingest topic: %w", err)
	}
	log.Info("subscribed", "topic", cfg.Topics.Ingest)

	if cfg.Topics.IngestLegacy != "" {
		if err := ingest.Subscribe(cfg.Topics.IngestLegacy, qos, pipe.Handle); err != nil {
			return fmt.Errorf("subscribing to legacy ingest topic: %w", err)
		}
		log.Info("subscribed", "topic", cfg.Topics.IngestLegacy)
	}

	// Start the operational API
	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config: cfg.API,
			Logger: log,
			Checks: map[string]api.HealthChecker{
				"database": db,
				"ingest":   ingest,
				"output":   output,
				"registry": registry,
			},
			Stats:   pipe.Stats,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API server disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	processed, dropped := pipe.Stats()
	log.Info("ingest relay stopped", "messages_processed", processed, "messages_dropped", dropped)
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RELAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
