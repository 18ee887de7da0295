// Package transform sanitizes telemetry payloads per ingest topic.
//
// Transformation is a pure mapping from raw payload to sanitized
// payload, selected from a topic-keyed registry. The canonical ingest
// topic rewrites metadata values and payload field keys so they are
// safe for use as downstream metric names; the legacy topic passes
// already-clean payloads through untouched. Unknown topics fail with
// ErrUnknownTopic rather than guessing.
//
// Transformers never mutate their input. Two distinct raw keys can
// sanitize to the same key; the collision resolves last-write-wins.
package transform
