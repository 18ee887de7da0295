// Package influxdb provides the optional direct time-series sink for
// the irtransform service.
//
// The normal data path hands converted blobs to NiFi over MQTT. When
// the direct sink is enabled, irtransform additionally writes each
// metric sample straight to InfluxDB, bypassing the NiFi hop for
// deployments that want lower ingestion latency.
//
// It wraps the official influxdb-client-go v2 library: non-blocking
// batched writes, token auth, and a ping-based health check.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered via
// the SetOnError callback. Connection and health check errors are
// returned directly.
package influxdb
