// Package logging provides structured logging for the ingest relay.
//
// It wraps log/slog with configuration-driven format and level
// selection, plus default service/version fields so log aggregation can
// distinguish relay instances.
//
// The relay has no synchronous failure channel back to message senders
// (MQTT is fire-and-forget), so logs are the only visibility into
// dropped messages. Every pipeline failure is logged with enough
// context to identify the offending message.
package logging
