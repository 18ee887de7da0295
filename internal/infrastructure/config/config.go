package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the ingest relay.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Ingest   MQTTConfig     `yaml:"ingest"`
	Output   MQTTConfig     `yaml:"output"`
	NiFi     MQTTConfig     `yaml:"nifi"`
	Topics   TopicsConfig   `yaml:"topics"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Registry RegistryConfig `yaml:"registry"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServiceConfig contains service identification settings.
type ServiceConfig struct {
	Name string `yaml:"name"`
}

// MQTTConfig contains connection settings for one MQTT broker.
// The relay talks to up to three brokers: the public ingest broker,
// the authenticated output broker, and the NiFi feed broker.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// TopicsConfig contains the topic names the relay subscribes to and publishes on.
type TopicsConfig struct {
	// Ingest is the public topic carrying credentialed telemetry.
	Ingest string `yaml:"ingest"`

	// IngestLegacy carries already-sanitized telemetry; payloads arriving
	// on it are relayed without transformation.
	IngestLegacy string `yaml:"ingest_legacy"`

	// Output is the authenticated topic that resolved messages are
	// republished on.
	Output string `yaml:"output"`

	// NiFi is the topic the irtransform service writes converted blobs to.
	NiFi string `yaml:"nifi"`
}

// AuthConfig contains bearer token validation settings.
type AuthConfig struct {
	// TokenSecret is the HMAC secret used to verify bearer tokens.
	TokenSecret string `yaml:"token_secret"`

	// TokenExpiry is the maximum accepted token age in seconds.
	TokenExpiry int `yaml:"token_expiry"`
}

// DatabaseConfig contains SQLite identity store settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RegistryConfig contains time-series registry (OpenTSDB) settings.
type RegistryConfig struct {
	// URL is the registry base URL, e.g. "http://opentsdb:4242/api/uid".
	URL string `yaml:"url"`

	// Timeout is the per-call timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// InfluxDBConfig contains settings for the optional direct InfluxDB sink
// used by the irtransform service.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains health endpoint settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
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
// Environment variables follow the pattern: RELAY_SECTION_KEY
// For example: RELAY_DATABASE_PATH, RELAY_REGISTRY_URL
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

// defaultConfig returns a Config with sensible defaults.
// Broker ports follow the deployment convention: public ingest broker on
// 1883, authenticated output broker on 2883, NiFi feed broker on 1883.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "ingest-relay",
		},
		Ingest: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ingest-relay-public",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Output: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     2883,
				ClientID: "ingest-relay-auth",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		NiFi: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "ingest-relay-nifi",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Topics: TopicsConfig{
			Ingest:       "data/ingest",
			IngestLegacy: "data/ingest/clean",
			Output:       "data/authenticated",
			NiFi:         "data/nifi",
		},
		Auth: AuthConfig{
			TokenExpiry: 3600,
		},
		Database: DatabaseConfig{
			Path:        "./data/identity.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Registry: RegistryConfig{
			URL:     "http://localhost:4242/api/uid",
			Timeout: 5,
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RELAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Brokers
	if v := os.Getenv("RELAY_INGEST_HOST"); v != "" {
		cfg.Ingest.Broker.Host = v
	}
	if v := os.Getenv("RELAY_INGEST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.Broker.Port = port
		}
	}
	if v := os.Getenv("RELAY_OUTPUT_HOST"); v != "" {
		cfg.Output.Broker.Host = v
	}
	if v := os.Getenv("RELAY_OUTPUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Output.Broker.Port = port
		}
	}
	if v := os.Getenv("RELAY_NIFI_HOST"); v != "" {
		cfg.NiFi.Broker.Host = v
	}

	// Topics
	if v := os.Getenv("RELAY_INGEST_TOPIC"); v != "" {
		cfg.Topics.Ingest = v
	}
	if v := os.Getenv("RELAY_OUTPUT_TOPIC"); v != "" {
		cfg.Topics.Output = v
	}
	if v := os.Getenv("RELAY_NIFI_TOPIC"); v != "" {
		cfg.Topics.NiFi = v
	}

	// Database
	if v := os.Getenv("RELAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Registry
	if v := os.Getenv("RELAY_REGISTRY_URL"); v != "" {
		cfg.Registry.URL = v
	}

	// InfluxDB
	if v := os.Getenv("RELAY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Auth - token secret (IMPORTANT: always override in production)
	if v := os.Getenv("RELAY_TOKEN_SECRET"); v != "" {
		cfg.Auth.TokenSecret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.Name == "" {
		errs = append(errs, "service.name is required")
	}

	if c.Topics.Ingest == "" {
		errs = append(errs, "topics.ingest is required")
	}
	if c.Topics.Output == "" {
		errs = append(errs, "topics.output is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Registry.URL == "" {
		errs = append(errs, "registry.url is required")
	}

	if c.Ingest.QoS < 0 || c.Ingest.QoS > 2 {
		errs = append(errs, "ingest.qos must be 0, 1, or 2")
	}
	if c.Output.QoS < 0 || c.Output.QoS > 2 {
		errs = append(errs, "output.qos must be 0, 1, or 2")
	}
	if c.NiFi.QoS < 0 || c.NiFi.QoS > 2 {
		errs = append(errs, "nifi.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// Token secret is REQUIRED. An empty or weak secret would allow
	// forged tokens to push telemetry under any identity.
	const minTokenSecretLength = 32
	if c.Auth.TokenSecret == "" {
		errs = append(errs, "auth.token_secret is required (set RELAY_TOKEN_SECRET environment variable)")
	} else if len(c.Auth.TokenSecret) < minTokenSecretLength {
		errs = append(errs, "auth.token_secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// RegistryTimeout returns the registry call timeout as a Duration.
func (c *Config) RegistryTimeout() time.Duration {
	return time.Duration(c.Registry.Timeout) * time.Second
}

// TokenExpiry returns the maximum accepted token age as a Duration.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.Auth.TokenExpiry) * time.Second
}
