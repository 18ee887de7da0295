package transform

import (
	"regexp"

	"github.com/fathomgrid/ingest-relay/internal/message"
)

// Sanitization patterns.
//
// Field keys become downstream metric name segments, so every run of
// characters the time-series backend rejects collapses to a single
// underscore. Metadata values only need hyphen normalization.
var (
	hyphenRun = regexp.MustCompile(`-+`)
	punctRun  = regexp.MustCompile("[ ()<>=!&|'\"`\\[\\]{}°,;:?*+\\-/\\\\]+")
)

// SanitizeMetadataValue collapses every run of hyphens to one
// underscore: "us-east-1" becomes "us_east_1".
func SanitizeMetadataValue(value string) string {
	return hyphenRun.ReplaceAllString(value, "_")
}

// SanitizeFieldKey collapses every run of reserved punctuation and
// whitespace to one underscore: "Reactive Power (kVAR)" becomes
// "Reactive_Power_kVAR_".
func SanitizeFieldKey(key string) string {
	return punctRun.ReplaceAllString(key, "_")
}

// Sanitize is the canonical ingest transformer. It rewrites metadata
// values and payload field keys on a copy of the payload; field values
// are carried over untouched.
func Sanitize(p message.Payload) message.Payload {
	out := p.Clone()

	for k, v := range out.Metadata {
		out.Metadata[k] = SanitizeMetadataValue(v)
	}

	if p.PayloadFields != nil {
		fields := make(map[string]message.Field, len(p.PayloadFields))
		for k, v := range p.PayloadFields {
			fields[SanitizeFieldKey(k)] = v
		}
		out.PayloadFields = fields
	}

	return out
}

// Passthrough is the legacy ingest transformer for already-sanitized
// payloads. It copies the payload without rewriting anything.
func Passthrough(p message.Payload) message.Payload {
	return p.Clone()
}
