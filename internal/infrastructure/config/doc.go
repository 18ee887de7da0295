// Package config provides configuration loading for the ingest relay.
//
// Configuration is read from a YAML file, starting from hardcoded
// defaults, with environment variable overrides applied last. The file
// describes the three broker connections (public ingest, authenticated
// output, NiFi feed), the topics in play, the identity store, the
// time-series registry, and ambient concerns (logging, health API).
//
// Secrets (token secret, InfluxDB token) should be supplied through
// environment variables rather than committed to the config file:
//
//	RELAY_TOKEN_SECRET=...
//	RELAY_INFLUXDB_TOKEN=...
//
// Validation runs after loading; a missing required value is fatal at
// startup. The relay never starts half-configured.
package config
