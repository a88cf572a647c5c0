// Zeo Core - washer polling coordinator
//
// This is the main entry point for the Zeo Core daemon. It keeps a local
// cache of one Roborock Zeo washer-dryer's attributes fresh by polling a
// gateway over MQTT on tiered cadences, and exposes the cache to
// consumers over REST, WebSocket and retained MQTT state topics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/washtower/zeo-core/migrations"

	"github.com/washtower/zeo-core/internal/api"
	"github.com/washtower/zeo-core/internal/coordinator"
	"github.com/washtower/zeo-core/internal/gateway"
	"github.com/washtower/zeo-core/internal/history"
	"github.com/washtower/zeo-core/internal/infrastructure/config"
	"github.com/washtower/zeo-core/internal/infrastructure/database"
	"github.com/washtower/zeo-core/internal/infrastructure/influxdb"
	"github.com/washtower/zeo-core/internal/infrastructure/logging"
	"github.com/washtower/zeo-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
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

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Zeo Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "duid", cfg.Device.DUID)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
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

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	qos := byte(cfg.MQTT.QoS)
	topics := mqtt.Topics{}

	// Gateway transport: the coordinator's path to the device
	transport := gateway.NewTransport(
		mqttClient,
		topics,
		cfg.Gateway.Protocol,
		cfg.Device.DUID,
		qos,
		cfg.GetRequestTimeout(),
	)
	transport.SetLogger(log)

	// Gateway liveness from its retained health topic
	gatewayHealth := gateway.NewHealthMonitor(mqttClient, topics, cfg.Gateway.Protocol, qos)
	gatewayHealth.SetLogger(log)
	if err := gatewayHealth.Start(); err != nil {
		return fmt.Errorf("subscribing to gateway health: %w", err)
	}

	// Refresh coordinator
	coord := coordinator.New(transport, cfg.GetFrequentInterval(), cfg.GetInfrequentInterval())
	coord.SetLogger(log)
	if influxClient != nil {
		coord.SetRefreshObserver(func(queried int, succeeded bool) {
			influxClient.WriteRefreshMetric(cfg.Device.DUID, queried, succeeded)
		})
	}

	// Retained MQTT state mirror
	statePublisher := gateway.NewStatePublisher(mqttClient, topics, cfg.Gateway.Protocol, qos)
	statePublisher.SetLogger(log)
	coord.AddListener(statePublisher.PublishMerge)

	// Attribute history (SQLite, plus Influx for numeric values)
	var historyRepo history.Repository
	if cfg.History.Enabled {
		repo := history.NewSQLiteRepository(db.DB)
		recorder := history.NewRecorder(repo, cfg.Device.DUID)
		recorder.SetLogger(log)
		if influxClient != nil {
			recorder.SetMetricsWriter(influxClient)
		}
		coord.AddListener(recorder.Record)
		historyRepo = repo

		if retention := cfg.GetHistoryRetention(); retention > 0 {
			pruner := history.NewPruner(repo, retention)
			pruner.SetLogger(log)
			go pruner.Run(ctx)
			log.Info("history retention enabled", "days", cfg.History.RetentionDays)
		}
		log.Info("attribute history enabled")
	} else {
		log.Info("attribute history disabled")
	}

	// MQTT command intake
	intake := gateway.NewCommandIntake(mqttClient, topics, coord, cfg.Gateway.Protocol, qos)
	intake.SetLogger(log)
	if err := intake.Start(); err != nil {
		return fmt.Errorf("subscribing to command topics: %w", err)
	}
	log.Info("MQTT command intake started")

	// API server with WebSocket hub
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Device:      cfg.Device,
		Logger:      log,
		Coordinator: coord,
		History:     historyRepo,
		Gateway:     gatewayHealth,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Register the hub before Start so no merge slips past it
	coord.AddListener(apiServer.Hub().BroadcastMerge)

	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, starting scheduler loop",
		"frequent_interval", cfg.GetFrequentInterval(),
		"infrequent_interval", cfg.GetInfrequentInterval(),
	)

	// Scheduler loop blocks until shutdown; the first tick runs the
	// initial attribute load.
	coord.Run(ctx)

	log.Info("shutdown signal received, cleaning up")
	log.Info("Zeo Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ZEOCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ZEOCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
