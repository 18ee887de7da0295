// Package message defines the relay's wire formats.
//
// Inbound messages arrive on the public ingest topic carrying an app
// name, a bearer token, and a telemetry payload. After authentication
// and identity resolution the relay republishes an Outbound message,
// where the credential pair is replaced by the durable application id
// and the payload has been sanitized.
//
// Parse is the single entry point for deserialization; everything it
// rejects is reported as ErrMalformedMessage so the pipeline can log
// and drop without inspecting JSON internals.
package message
