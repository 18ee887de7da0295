// Package convert reshapes authenticated payloads into the ingestion
// envelope the NiFi feed expects.
//
// The conversion is a pure, stateless mapping: one blob per payload
// field, each carrying the fully qualified metric sample plus the
// shared static attributes (metadata, display name, unit) and the
// shared dynamic attributes (the sample timestamp). The irtransform
// service runs it between the authenticated output topic and the NiFi
// feed topic.
package convert
