// Package pipeline orchestrates per-message processing.
//
// Each inbound message walks the same sequence: parse, authenticate,
// resolve the application identity, transform the payload, publish
// downstream, then ensure the payload's metrics are registered. Any
// failure before publication short-circuits the message: it is logged
// with enough context to identify it and dropped. There is no retry,
// no dead-letter queue, and no signal back to the sender.
//
// Metric registration runs after publication and is best-effort: its
// failure is logged but never unwinds the already-published message.
//
// Pipelines for different messages interleave freely; correctness
// under that concurrency comes from the identity store's uniqueness
// constraints, not from serialization here.
package pipeline
