// Package mqtt wraps the Eclipse Paho MQTT client for the ingest relay.
//
// The relay maintains up to three broker connections, each with its own
// Client: the public ingest broker it subscribes to, the authenticated
// output broker it republishes on, and the NiFi feed broker the
// irtransform service writes converted blobs to.
//
// # Features
//
//   - Connection management with auto-reconnect and exponential backoff
//   - Subscription restoration after reconnect
//   - Retained liveness status with LWT for crash detection
//   - Panic recovery around message handlers
//
// # Delivery semantics
//
// The broker protocol is one-way from the relay's point of view: a
// failed message is logged and dropped, never surfaced to the sender.
// Publish waits only for broker acceptance, not consumer delivery.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Handlers run on paho's goroutines, so one slow message does not stall
// the others.
package mqtt
