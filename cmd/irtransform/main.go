// IR Transform - downstream blob converter.
//
// The service subscribes to the authenticated output topic, converts
// each resolved message into time-series ingestion blobs (one blob per
// payload field), and publishes the blob array to the NiFi feed topic.
// When the InfluxDB sink is enabled, each sample is also written
// directly as a datapoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fathomgrid/ingest-relay/internal/convert"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/config"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/influxdb"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/logging"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/mqtt"
	"github.com/fathomgrid/ingest-relay/internal/message"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting ir transform", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, "ir-transform", version)
	log.Info("configuration loaded", "path", configPath)

	// Connect to the authenticated output broker (our source)
	source, err := mqtt.Connect(cfg.Output)
	if err != nil {
		return fmt.Errorf("connecting to output broker: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			log.Error("error closing output broker", "error", closeErr)
		}
	}()
	source.SetLogger(log.With("broker", "output"))
	log.Info("output broker connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Output.Broker.Host, cfg.Output.Broker.Port),
	)

	// Connect to the NiFi feed broker (our sink)
	feed, err := mqtt.Connect(cfg.NiFi)
	if err != nil {
		return fmt.Errorf("connecting to nifi broker: %w", err)
	}
	defer func() {
		if closeErr := feed.Close(); closeErr != nil {
			log.Error("error closing nifi broker", "error", closeErr)
		}
	}()
	feed.SetLogger(log.With("broker", "nifi"))
	log.Info("nifi broker connected",
		"broker", fmt.Sprintf("%s:%d", cfg.NiFi.Broker.Host, cfg.NiFi.Broker.Port),
	)

	// Optional direct InfluxDB sink
	var influx *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influx, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to influxdb: %w", err)
		}
		defer func() {
			if closeErr := influx.Close(); closeErr != nil {
				log.Error("error closing influxdb", "error", closeErr)
			}
		}()
		influx.SetOnError(func(err error) {
			log.Error("influxdb write error", "error", err)
		})
		log.Info("influxdb sink connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("influxdb sink disabled")
	}

	tf := &transformer{
		feed:      feed,
		feedTopic: cfg.Topics.NiFi,
		influx:    influx,
		logger:    log,
	}

	qos := byte(cfg.Output.QoS) //nolint:gosec // validated 0-2 in config
	if err := source.Subscribe(cfg.Topics.Output, qos, tf.handle); err != nil {
		return fmt.Errorf("subscribing to output topic: %w", err)
	}
	log.Info("subscribed", "topic", cfg.Topics.Output)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	log.Info("ir transform stopped",
		"messages_converted", tf.converted.Load(),
		"messages_dropped", tf.dropped.Load(),
	)
	return nil
}

// transformer converts authenticated messages into ingestion blobs.
type transformer struct {
	feed      *mqtt.Client
	feedTopic string
	influx    *influxdb.Client
	logger    *logging.Logger

	converted atomic.Uint64
	dropped   atomic.Uint64
}

// handle converts one authenticated message. Messages are independent;
// a failure drops only the message that caused it.
func (t *transformer) handle(topic string, payload []byte) error {
	var out message.Outbound
	if err := json.Unmarshal(payload, &out); err != nil {
		t.dropped.Add(1)
		t.logger.Warn("dropping undecodable message", "topic", topic, "error", err)
		return fmt.Errorf("decoding authenticated message: %w", err)
	}

	blobs := convert.ToBlobs(out.AppID, out.Data)
	if len(blobs) == 0 {
		t.dropped.Add(1)
		t.logger.Warn("dropping fieldless message", "topic", topic, "app_id", out.AppID)
		return nil
	}

	encoded, err := json.Marshal(blobs)
	if err != nil {
		t.dropped.Add(1)
		return fmt.Errorf("encoding blobs: %w", err)
	}

	if err := t.feed.PublishJSON(t.feedTopic, encoded); err != nil {
		t.dropped.Add(1)
		t.logger.Error("publishing blobs failed",
			"topic", t.feedTopic,
			"app_id", out.AppID,
			"error", err,
		)
		return fmt.Errorf("publishing blobs: %w", err)
	}

	t.converted.Add(1)
	t.logger.Debug("blobs published",
		"app_id", out.AppID,
		"app_name", out.Data.AppName,
		"blobs", len(blobs),
	)

	if t.influx != nil {
		t.writeDatapoints(out)
	}
	return nil
}

// writeDatapoints mirrors each numeric sample into InfluxDB. The sink
// is best effort; a bad sample or timestamp never unwinds the publish.
func (t *transformer) writeDatapoints(out message.Outbound) {
	ts, err := time.Parse(time.RFC3339, out.Data.Time)
	if err != nil {
		t.logger.Warn("unparseable sample time, using receive time",
			"app_id", out.AppID,
			"time", out.Data.Time,
		)
		ts = time.Now().UTC()
	}

	appID := strconv.FormatInt(out.AppID, 10)
	for name, field := range out.Data.PayloadFields {
		value, ok := field.Value.(float64)
		if !ok {
			continue
		}
		t.influx.WriteMetric(appID, name, value, ts)
	}
}

// getConfigPath returns the configuration file path.
// Uses RELAY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
