// mqttcore - MQTT client facade service
//
// This is the main entry point for the mqttcore harness. It wires the
// MQTT facade to its supporting infrastructure:
//   - Structured logging for every dispatched callback event
//   - Optional SQLite journal of arrived messages
//   - Optional InfluxDB telemetry of dispatch activity
//
// The harness connects, subscribes to the configured topics and runs
// until interrupted, then disconnects with a quiesce period so in-flight
// work can complete.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/duyld15/mqttcore/internal/infrastructure/config"
	"github.com/duyld15/mqttcore/internal/infrastructure/database"
	"github.com/duyld15/mqttcore/internal/infrastructure/influxdb"
	"github.com/duyld15/mqttcore/internal/infrastructure/logging"
	"github.com/duyld15/mqttcore/internal/journal"
	"github.com/duyld15/mqttcore/internal/mqtt"
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

// journalTimeout bounds a single journal insert so a slow disk cannot
// stall event dispatch.
const journalTimeout = 2 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
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
	log.Info("starting mqttcore",
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
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the message journal (optional)
	var repo journal.Repository
	if cfg.Journal.Enabled {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening journal database: %w", openErr)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		repo, err = journal.NewSQLiteRepository(ctx, db.DB)
		if err != nil {
			return fmt.Errorf("initialising journal: %w", err)
		}
		log.Info("message journal enabled", "path", cfg.Journal.Path)
	} else {
		log.Info("message journal disabled")
	}

	// Connect event telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.Telemetry.Enabled {
		influxClient, err = influxdb.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
		log.Info("telemetry connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)
	} else {
		log.Info("telemetry disabled")
	}

	// Build the MQTT facade
	client := mqtt.New(cfg.MQTT)
	client.SetLogger(log)
	if influxClient != nil {
		client.SetEventSink(influxClient)
	}
	client.SetEventHandler(makeEventHandler(log, repo))

	// Buffer arrived messages for the consumption API
	client.StartSavingMessage()

	// Connect to the broker, waiting for the handshake to settle
	if !client.Connect(true, 0) {
		outcome := client.Trace().Last()
		return fmt.Errorf("connecting to broker: %s", outcome.Message)
	}
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Subscribe to configured topics
	qos := byte(cfg.MQTT.QoS)
	for _, topic := range cfg.MQTT.Topics {
		if !client.Subscribe(topic, qos, true, 0) {
			outcome := client.Trace().Last()
			log.Warn("subscribe failed", "topic", topic, "reason", outcome.Message)
			continue
		}
		log.Info("subscribed", "topic", topic, "qos", qos)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Disconnect with quiesce so in-flight messages complete
	if !client.Disconnect(true, 0) {
		outcome := client.Trace().Last()
		log.Warn("disconnect failed", "reason", outcome.Message)
	}

	log.Info("mqttcore stopped")
	return nil
}

// makeEventHandler builds the callback dispatched for every facade event.
// Arrived messages are journalled when a repository is configured; the
// remaining events are already logged by the facade itself.
func makeEventHandler(log *logging.Logger, repo journal.Repository) mqtt.EventHandler {
	return func(event mqtt.CallbackEvent, info mqtt.Payload) {
		if event != mqtt.EventMessageArrived || repo == nil {
			return
		}

		msg, err := info.AsMessage()
		if err != nil {
			log.Error("arrived event without message payload", "error", err)
			return
		}

		jctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
		defer cancel()

		entry := &journal.Entry{
			Topic:    msg.Topic(),
			Payload:  msg.Payload(),
			Retained: msg.Retained(),
		}
		if err := repo.Append(jctx, entry); err != nil {
			log.Error("journal append failed", "topic", entry.Topic, "error", err)
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses MQTTCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MQTTCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
